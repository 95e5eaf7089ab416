package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if viper.ConfigFileUsed() != "" {
		fmt.Printf("config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Println("config file: (none)")
	}

	template := viper.GetString("template")
	if template == "" {
		template = defaultTemplate
	}

	fmt.Printf("db:         %s\n", viper.GetString("db"))
	fmt.Printf("template:   %s\n", template)
	fmt.Printf("exclude:    %v\n", viper.GetStringSlice("exclude"))
	fmt.Printf("verbose:    %v\n", viper.GetBool("verbose"))
	fmt.Printf("quiet:      %v\n", viper.GetBool("quiet"))

	return nil
}
