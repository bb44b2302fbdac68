package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/noridevx/wedding-web/internal/app"
	"github.com/noridevx/wedding-web/internal/config"
	"github.com/noridevx/wedding-web/internal/models"
	"github.com/noridevx/wedding-web/internal/services"
	"github.com/noridevx/wedding-web/internal/utils"
)

const commandTimeout = time.Minute

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

type photosFlags struct {
	challengesOnly bool
	pages          int
	jsonOut        bool
}

type addPhotoFlags struct {
	fileName  string
	fileType  string
	fileSize  int64
	url       string
	comment   string
	challenge string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "weddingctl",
		Short:        "Operate the wedding challenge store",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			utils.InitLogger("weddingctl")
			// stdout is for command output.
			utils.Logger.SetOutput(os.Stderr)
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Create the challenges and photos tables if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				if a.DB == nil {
					return codeError(2, "schema: %s", utils.ErrGatewayUnavailable)
				}
				if err := app.EnsureSchema(ctx, a.DB); err != nil {
					return codeError(2, "schema: %s", err)
				}
				fmt.Fprintln(out, "schema ok")
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Insert the default challenge list into an empty table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				n, err := app.SeedChallenges(ctx, a.ChallengeRepo)
				if err != nil {
					return codeError(2, "seed: %s", err)
				}
				fmt.Fprintf(out, "inserted %d challenges\n", n)
				return nil
			})
		},
	})

	var progressJSON bool
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "Print how many challenges are completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				p, err := a.Progress.CurrentProgress(ctx)
				if err != nil {
					return codeError(2, "progress: %s", err)
				}
				return printProgress(out, p, progressJSON)
			})
		},
	}
	progressCmd.Flags().BoolVar(&progressJSON, "json", false, "Print as JSON")
	root.AddCommand(progressCmd)

	var pf photosFlags
	photosCmd := &cobra.Command{
		Use:   "photos",
		Short: "List gallery photos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pf.pages < 1 {
				return codeError(3, "--pages must be at least 1")
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				return listPhotos(ctx, out, a, pf)
			})
		},
	}
	f := photosCmd.Flags()
	f.BoolVar(&pf.challengesOnly, "challenges-only", false, "Only photos linked to a challenge")
	f.IntVar(&pf.pages, "pages", 1, "Number of pages to fetch")
	f.BoolVar(&pf.jsonOut, "json", false, "Print as JSON")

	var af addPhotoFlags
	addPhotoCmd := &cobra.Command{
		Use:   "add",
		Short: "Register an already uploaded object as a gallery photo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := af.photo()
			if err != nil {
				return codeError(3, "photos add: %s", err)
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				if err := app.RegisterPhoto(ctx, a.PhotoRepo, a.ChallengeRepo, p); err != nil {
					return codeError(2, "photos add: %s", err)
				}
				fmt.Fprintln(out, p.ID)
				return nil
			})
		},
	}
	af.bind(addPhotoCmd)
	photosCmd.AddCommand(addPhotoCmd)
	root.AddCommand(photosCmd)

	return root
}

func (af *addPhotoFlags) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&af.fileName, "file-name", "", "Object path inside the storage folder")
	f.StringVar(&af.fileType, "type", "image/jpeg", "MIME type")
	f.Int64Var(&af.fileSize, "size", 0, "Size in bytes")
	f.StringVar(&af.url, "url", "", "Public URL; built from the storage settings when empty")
	f.StringVar(&af.comment, "comment", "", "Guest comment")
	f.StringVar(&af.challenge, "challenge", "", "Challenge id the photo belongs to")
	_ = cmd.MarkFlagRequired("file-name")
}

func (af *addPhotoFlags) photo() (*models.Photo, error) {
	p := &models.Photo{
		URL:      af.url,
		Comment:  af.comment,
		FileName: af.fileName,
		FileSize: af.fileSize,
		FileType: af.fileType,
	}
	if af.challenge != "" {
		id, err := uuid.Parse(af.challenge)
		if err != nil {
			return nil, fmt.Errorf("--challenge: %w", err)
		}
		p.ChallengeID = &id
	}
	return p, nil
}

func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return codeError(3, "config: %s", err)
	}
	a, err := app.NewApp(cfg)
	if err != nil {
		return codeError(2, "init: %s", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return fn(ctx, a)
}

func printProgress(out io.Writer, p services.ChallengeProgress, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	_, err := fmt.Fprintf(out, "completed %d/%d (%d%%), reserved %d, incomplete %d\n",
		p.Completed, p.Total, p.CompletionRate, p.Reserved, p.Incomplete)
	return err
}

func listPhotos(ctx context.Context, out io.Writer, a *app.App, pf photosFlags) error {
	g := services.NewPhotoGallery(a.PhotoRepo, a.Config.GalleryPageSize)
	if pf.challengesOnly {
		if err := g.ToggleChallengeFilter(ctx); err != nil {
			return codeError(2, "photos: %s", err)
		}
	} else if err := g.ListPhotos(ctx, true); err != nil {
		return codeError(2, "photos: %s", err)
	}
	for i := 1; i < pf.pages; i++ {
		if err := g.LoadMorePhotos(ctx); err != nil {
			return codeError(2, "photos: %s", err)
		}
	}

	photos := g.FilteredPhotos()
	if pf.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(photos)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UPLOADED\tFILE\tCHALLENGE")
	for _, p := range photos {
		challenge := "-"
		if p.Challenge != nil {
			challenge = p.Challenge.Description
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.UploadedAt.Format(time.RFC3339), p.FileName, challenge)
	}
	return tw.Flush()
}
