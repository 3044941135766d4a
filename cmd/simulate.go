package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dh1tw/speechBridge/loss"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "run the loss simulation and print its statistics",
	Long: `run the loss simulation for a number of packets and print the
resulting loss fraction and burst statistics. Useful to check which
parameters produce the channel you want to emulate.`,
	Args: cobra.NoArgs,
	Run:  simulate,
}

func init() {
	RootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntP("packets", "n", 10000, "number of packets to classify")
	addLossFlags(simulateCmd)
}

func simulate(cmd *cobra.Command, args []string) {

	readConfig()

	bindLossFlags(cmd)
	viper.BindPFlag("simulate.packets", cmd.Flags().Lookup("packets"))

	if err := checkLossParameterValues(); err != nil {
		exit(err)
	}

	n := viper.GetInt("simulate.packets")
	if n <= 0 {
		exit(&parmError{parm: "simulate.packets", msg: "value must be > 0"})
	}

	sim, err := loss.New(lossSpec())
	if err != nil {
		exit(err)
	}

	spec := lossSpec()
	if spec.Pattern.IsEmpty() && sim.BurstLength() != spec.AverageBurstLength {
		fmt.Printf("burst length raised to %.2f to reach the loss rate\n", sim.BurstLength())
	}

	sum := loss.Measure(sim, n)

	fmt.Printf("packets:           %d\n", sum.Packets)
	fmt.Printf("lost:              %d (%.2f%%)\n", sum.Lost, sum.LossFraction*100)
	fmt.Printf("duplicated:        %d\n", sum.Duplicated)
	fmt.Printf("loss bursts:       %d\n", sum.Bursts)
	fmt.Printf("mean burst length: %.2f\n", sum.MeanBurstLength)
	fmt.Printf("max burst length:  %d\n", sum.MaxBurstLength)
}
