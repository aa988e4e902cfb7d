package cmd

import (
	"fmt"

	"github.com/ordmarket/orderbook-engine/modules/omb/omb"
	"github.com/spf13/cobra"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show orderbook engine version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(omb.Version)
		},
	}
}
