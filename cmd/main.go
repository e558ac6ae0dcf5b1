package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docpile-ai/docpile/cmd/service"
)

func main() {
	root := &cobra.Command{
		Use:   "docpile",
		Short: "docpile document qa service",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("empty command")
		},
	}

	root.AddCommand(service.NewCommand(), service.NewProcessCommand(), service.NewMigrateCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
