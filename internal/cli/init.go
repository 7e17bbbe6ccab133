package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uncaged-coder/vcardtools/internal/config"
	"github.com/uncaged-coder/vcardtools/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ResolveConfigPath(configPath)
		created, err := config.CreateDefault(path)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"path": path, "created": created}, nil)
			return nil
		}
		if !created {
			fmt.Println(ui.Infof("Config already exists at %s", ui.FilePath(path)))
			return nil
		}
		fmt.Println(ui.Successf("Created %s", ui.FilePath(path)))
		fmt.Println(ui.Hint("Set work_dir, contacts_root and books, then run 'vcardtools books'."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
