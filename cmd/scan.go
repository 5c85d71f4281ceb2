package main

import (
	"github.com/spf13/cobra"
)

func newScanCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Import new files from the media directory once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *configFile)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.services.Scan(cmd.Context())
			cmd.Printf("files seen: %d, imported: %d, failed: %d\n", st.FilesSeen, st.Imported, st.Failed)
			if st.LastError != "" {
				cmd.Printf("last error: %s\n", st.LastError)
			}
			return err
		},
	}
}
