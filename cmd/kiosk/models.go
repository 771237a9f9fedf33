package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/face"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/provider"
	"github.com/saturnino-fabrica-de-software/rekko-kiosk/internal/service"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the face models",
}

var modelsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Load every model with the configured provider and open it",
	RunE: func(cmd *cobra.Command, args []string) error {
		faceProvider, err := face.NewFaceProvider(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create face provider: %w", err)
		}
		defer func() { _ = faceProvider.Close() }()

		models := provider.DefaultModels()
		loader := service.NewModelLoader(faceProvider, models, logger)

		bar := progressbar.NewOptions(len(models),
			progressbar.OptionSetDescription("Verifying models"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		out := cmd.OutOrStdout()
		err = loader.Verify(cmd.Context(), func(model provider.Model, err error) {
			_ = bar.Add(1)
			if err != nil {
				fmt.Fprintf(out, "FAIL  %-12s %-20s %v\n", model.Kind, model.Name, err)
				return
			}
			fmt.Fprintf(out, "ok    %-12s %-20s %s\n", model.Kind, model.Name, model.URI)
		})
		_ = bar.Finish()
		if err != nil {
			return fmt.Errorf("model verification failed: %w", err)
		}

		fmt.Fprintf(out, "provider %s ready\n", cfg.FaceProvider)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsVerifyCmd)
}
