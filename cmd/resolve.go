package cmd

import (
	"github.com/spf13/cobra"
)

var resolveFlags requestFlags

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the price currently applying to a charging point",
	RunE:  runResolve,
}

func init() {
	addRequestFlags(resolveCmd, &resolveFlags)
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, _ []string) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine(cmd, e)

	res := e.Resolve(commandContext(cmd), resolveFlags.request(cmd))
	return writeJSON(cmd.OutOrStdout(), res)
}
