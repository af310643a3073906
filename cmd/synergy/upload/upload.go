// Package uploadcmder provides the upload command for sending documents to
// the reading assistant's knowledge store.
package uploadcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/cmd/synergy/backend"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/upload"
)

var uploadFlags = config.FlagSet{
	config.FlagBackend: backend.Flags[config.FlagBackend],
	config.FlagUploadWorkers: {
		Name:        "workers",
		Shorthand:   "w",
		ViperKey:    "upload.workers",
		Description: "Number of documents extracted and uploaded concurrently",
	},
}

type uploadCommander struct {
	backendURL string
	workers    uint
	watchDir   string

	conn *backend.Conn
	out  io.Writer
	mu   sync.Mutex
}

const uploadLongDesc string = `Upload documents to the reading assistant.

Text is extracted locally from PDF, DOCX, TXT and JSON files and sent to
the backend, which chunks and embeds it for retrieval. Files are processed
by a pool of workers; one line is printed per file.

With --watch, the command keeps running and uploads every supported file
created or written in the directory until interrupted.

Examples:
  synergy upload contract.pdf notes.docx
  synergy upload --workers 8 papers/*.pdf
  synergy upload --watch ~/Documents/inbox`

const uploadShortDesc string = "Upload documents to the reading assistant"

func NewUploadCmd() *cobra.Command {
	cmder := &uploadCommander{}

	cmd := &cobra.Command{
		Use:   "upload [files...]",
		Short: uploadShortDesc,
		Long:  uploadLongDesc,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && cmder.watchDir == "" {
				return errors.New("no files given (pass files or --watch <dir>)")
			}

			var err error
			cmder.conn, err = backend.Resolve(cmd, uploadFlags, config.FlagBackend, config.FlagUploadWorkers)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if len(args) > 0 {
				if err := cmder.uploadFiles(ctx, args); err != nil {
					return err
				}
			}
			if cmder.watchDir != "" {
				return cmder.watch(ctx)
			}
			return nil
		},
	}

	config.AddStringFlag(cmd, uploadFlags, config.FlagBackend, &cmder.backendURL)
	config.AddUintFlag(cmd, uploadFlags, config.FlagUploadWorkers, &cmder.workers)
	cmd.Flags().StringVar(&cmder.watchDir, "watch", "", "Directory to watch for new documents")

	return cmd
}

func (c *uploadCommander) poolConfig() (*upload.Config, error) {
	cl, err := c.conn.Client()
	if err != nil {
		return nil, err
	}

	return &upload.Config{
		Uploader:   cl,
		NumWorkers: c.conn.Viper.GetUint("upload.workers"),
		OnResult:   c.report,
		Logger:     c.conn.Logger,
	}, nil
}

func (c *uploadCommander) uploadFiles(ctx context.Context, paths []string) error {
	cfg, err := c.poolConfig()
	if err != nil {
		return err
	}

	results, err := upload.UploadAll(ctx, cfg, paths)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	return nil
}

func (c *uploadCommander) watch(ctx context.Context) error {
	cfg, err := c.poolConfig()
	if err != nil {
		return err
	}

	pool, err := upload.NewPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	fmt.Fprintf(c.out, "  %s %s %s\n",
		cliui.DimStyle.Render("●"),
		cliui.KeyStyle.Render("Watching"),
		cliui.ValueStyle.Render(c.watchDir),
	)

	w := &upload.Watcher{Dir: c.watchDir, Pool: pool, Logger: c.conn.Logger}
	return w.Run(ctx)
}

// report prints one line per finished file. Workers call it concurrently.
func (c *uploadCommander) report(r upload.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.Err != nil {
		fmt.Fprintf(c.out, "  %s %s %s\n", cliui.FailMark, r.Path, cliui.ErrorStyle.Render(r.Err.Error()))
		return
	}

	detail := fmt.Sprintf("(%d chars", r.Chars)
	if r.Upload != nil {
		detail += fmt.Sprintf(", %d chunks, document %d", r.Upload.ChunksCount, r.Upload.DocumentID)
	}
	detail += ")"

	fmt.Fprintf(c.out, "  %s %s %s\n", cliui.SuccessMark, r.Path, cliui.DimStyle.Render(detail))
}
