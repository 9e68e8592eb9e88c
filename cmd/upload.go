package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leisambientais/leischat/internal/progress"
	"github.com/leisambientais/leischat/internal/termui"
	"github.com/leisambientais/leischat/internal/upload"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload documents to the assistant",
	Long:  `Uploads one or more PDF documents so the assistant can use them in its answers. Files that do not match the accepted patterns are rejected without a request.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	quietLogs()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var opts []upload.Option
	if n := cfg.MaxUploadBytes(); n > 0 {
		opts = append(opts, upload.WithMaxSize(n))
	}
	opts = append(opts, upload.WithPatterns(cfg.Upload.Patterns...))
	w := upload.New(newBackendClient(cfg), opts...)
	r := termui.New(0)

	failed := 0
	for _, path := range args {
		err := uploadFile(cmd.Context(), w, path)
		switch {
		case errors.Is(err, upload.ErrRejected):
			_, msg := w.Error()
			fmt.Println(r.Error(filepath.Base(path) + ": " + msg))
		case err != nil && w.State() != upload.Failed:
			fmt.Println(r.Error(err.Error()))
		default:
			fmt.Println(r.Modal(w.View()))
		}
		if err != nil || w.State() == upload.Failed {
			failed++
		}
		w.Close()
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}

// uploadFile runs one upload through the widget with a progress bar.
func uploadFile(ctx context.Context, w *upload.Widget, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	w.Open()
	if err := w.Validate(name, info.Size()); err != nil {
		return err
	}
	rep := progress.NewReporter()
	rep.Start(info.Size(), name)
	err = w.Upload(ctx, name, info.Size(), progress.Reader(f, rep))
	rep.Finish()
	return err
}
