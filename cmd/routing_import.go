package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"

	"mes.GO/config"
	routingService "mes.GO/service/routing"
)

var routingImportFile string

var routingImportCmd = &cobra.Command{
	Use:   "routing:import",
	Short: "Import routing catalog steps from a JSON file",
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := os.ReadFile(routingImportFile)
		if err != nil {
			fmt.Printf("Failed to read file: %v\n", err)
			return
		}

		// Rows come from spreadsheet exports with extra columns; decode
		// leniently instead of failing the whole file on unknown keys.
		var rows []map[string]interface{}
		if err := json.Unmarshal(raw, &rows); err != nil {
			fmt.Printf("Invalid JSON: %v\n", err)
			return
		}

		db, err := config.NewDB()
		if err != nil {
			fmt.Printf("Database connection failed: %v\n", err)
			return
		}
		catalog := routingService.NewCatalog(db)

		imported, skipped := 0, 0
		for i, row := range rows {
			var in routingService.StepInput
			dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				Result:           &in,
				TagName:          "json",
				WeaklyTypedInput: true,
			})
			if err != nil {
				fmt.Printf("Decoder setup failed: %v\n", err)
				return
			}
			if err := dec.Decode(row); err != nil {
				fmt.Printf("  [warn] row %d: %v\n", i+1, err)
				skipped++
				continue
			}
			if _, err := catalog.SaveStep(in); err != nil {
				fmt.Printf("  [warn] row %d (%s): %v\n", i+1, in.ProcessCode, err)
				skipped++
				continue
			}
			imported++
		}
		fmt.Printf("Imported %d steps, skipped %d.\n", imported, skipped)
	},
}

func init() {
	routingImportCmd.Flags().StringVarP(&routingImportFile, "file", "f", "", "JSON file with catalog steps")
	routingImportCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(routingImportCmd)
}
