package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/panyam/fanin"
	"github.com/panyam/fanin/internal/config"
	"github.com/panyam/fanin/internal/logger"
	"github.com/panyam/fanin/interval"
	"github.com/panyam/fanin/objstore"
)

const (
	FlagConfig    = "config"
	FlagVerbose   = "verbose"
	FlagKeyPrefix = "key-prefix"
	FlagLastDays  = "last-days"
	FlagBefore    = "before"
)

// StoreOpener creates the storage backend for a configuration.
type StoreOpener func(ctx context.Context, cfg *config.Config) (objstore.Store, func() error, error)

// OpenGCS opens a Google Cloud Storage backend.
func OpenGCS(ctx context.Context, cfg *config.Config) (objstore.Store, func() error, error) {
	store, err := objstore.NewGCSStore(ctx, objstore.GCSConfig{
		EmulatorHost:    cfg.EmulatorHost,
		CredentialsFile: cfg.CredentialsFile,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

type options struct {
	configPath string
	verbose    bool
	openStore  StoreOpener
}

// session is everything a subcommand needs once flags are parsed.
type session struct {
	cfg    *config.Config
	log    *logger.Logger
	client *objstore.Client
	close  func() error
}

func (o *options) session(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	// the development default is debug level; only -v asks for that on a terminal
	mode := cfg.LogMode
	if o.verbose {
		mode = config.DefaultLogMode
	} else if mode == config.DefaultLogMode {
		mode = "prod"
	}
	log, err := logger.New(mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	store, closeStore, err := o.openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	client := objstore.NewClient(store, objstore.WithLogger(log), objstore.WithConcurrency(cfg.Concurrency))
	return &session{
		cfg:    cfg,
		log:    log,
		client: client,
		close: func() error {
			log.Sync()
			return closeStore()
		},
	}, nil
}

// NewRootCommand builds the command tree using openStore for storage access.
func NewRootCommand(openStore StoreOpener) *cobra.Command {
	o := &options{openStore: openStore}
	root := &cobra.Command{
		Use:   "fanin",
		Short: "Run object storage operations concurrently and report what succeeded and what failed",
		Long: `fanin runs batches of object storage operations in parallel and waits for all
of them. One failing object never stops the others; the command prints every
result and exits non-zero if anything failed.

  fanin list logs/                           # list keys under a prefix
  fanin download logs/a.json logs/b.json     # fetch objects concurrently
  fanin download --key-prefix logs --last-days 7
  fanin upload --key-prefix reports *.csv
  fanin purge logs/ --before 2015-12-21`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&o.configPath, FlagConfig, "c", "", "configuration file (default fanin.yaml)")
	root.PersistentFlags().BoolVarP(&o.verbose, FlagVerbose, "v", false, "verbose logging")

	root.AddCommand(newListCommand(o), newDownloadCommand(o), newUploadCommand(o), newPurgeCommand(o))
	return root
}

// Execute runs the command line against Google Cloud Storage.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand(OpenGCS).ExecuteContext(ctx)
}

func newListCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list [prefix]",
		Short: "List object keys under a prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			prefix := s.cfg.Prefix
			if len(args) == 1 {
				prefix = args[0]
			}
			listing, err := s.client.List(cmd.Context(), s.cfg.Bucket, prefix)
			if err != nil {
				return err
			}
			for _, obj := range listing.Objects {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", obj.Address.Key, obj.Size, obj.Updated.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newDownloadCommand(o *options) *cobra.Command {
	var keyPrefix string
	var lastDays int
	cmd := &cobra.Command{
		Use:   "download [key...]",
		Short: "Download objects concurrently",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if keyPrefix == "" {
				keyPrefix = s.cfg.Prefix
			}
			keys := append([]string(nil), args...)
			keys = append(keys, DayKeys(keyPrefix, time.Now(), lastDays)...)
			addrs, err := addresses(s.cfg.Bucket, keys)
			if err != nil {
				return err
			}
			fi, err := s.client.DownloadAll(cmd.Context(), addrs, s.cfg.MaxObjectSize)
			if err != nil {
				return fmt.Errorf("nothing to download: %w", err)
			}
			return report(cmd, "download", fi, s.cfg.WaitTimeout, func(d objstore.Download) string {
				return fmt.Sprintf("%s\t%d bytes", d.Address, len(d.Content))
			})
		},
	}
	cmd.Flags().StringVar(&keyPrefix, FlagKeyPrefix, "", "prefix for generated day keys (default from config)")
	cmd.Flags().IntVar(&lastDays, FlagLastDays, 0, "also download <key-prefix>/<YYYY-MM-DD> for the last N days")
	return cmd
}

func newUploadCommand(o *options) *cobra.Command {
	var keyPrefix string
	cmd := &cobra.Command{
		Use:   "upload file...",
		Short: "Upload local files concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if keyPrefix == "" {
				keyPrefix = s.cfg.Prefix
			}
			uploads := make([]objstore.Upload, 0, len(args))
			for _, path := range args {
				u, err := fileUpload(s.cfg.Bucket, keyPrefix, path)
				if err != nil {
					closeBodies(uploads)
					return err
				}
				uploads = append(uploads, u)
			}
			fi, err := s.client.UploadAll(cmd.Context(), uploads)
			if err != nil {
				return err
			}
			return report(cmd, "upload", fi, s.cfg.WaitTimeout, objstore.Address.String)
		},
	}
	cmd.Flags().StringVar(&keyPrefix, FlagKeyPrefix, "", "key prefix for uploaded files (default from config)")
	return cmd
}

func newPurgeCommand(o *options) *cobra.Command {
	var before string
	cmd := &cobra.Command{
		Use:   "purge prefix",
		Short: "Delete the objects under a prefix concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.session(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			listing, err := s.client.List(cmd.Context(), s.cfg.Bucket, args[0])
			if err != nil {
				return err
			}
			if before != "" {
				day, err := interval.ParseDay(before)
				if err != nil {
					return fmt.Errorf("invalid --%s: %w", FlagBefore, err)
				}
				listing = listing.Before(day)
			}
			if len(listing.Objects) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "purge: nothing to delete")
				return nil
			}
			fi, err := s.client.DeleteAll(cmd.Context(), listing)
			if err != nil {
				return err
			}
			return report(cmd, "purge", fi, s.cfg.WaitTimeout, objstore.Address.String)
		},
	}
	cmd.Flags().StringVar(&before, FlagBefore, "", "only delete objects last updated before this day (YYYY-MM-DD)")
	return cmd
}

// DayKeys returns "<prefix>/<day>" for each of the last n days ending on now.
func DayKeys(prefix string, now time.Time, n int) []string {
	var keys []string
	for _, day := range interval.EndingOn(now, n) {
		if prefix == "" {
			keys = append(keys, interval.FormatDay(day))
		} else {
			keys = append(keys, prefix+"/"+interval.FormatDay(day))
		}
	}
	return keys
}

func addresses(bucket string, keys []string) ([]objstore.Address, error) {
	out := make([]objstore.Address, 0, len(keys))
	for _, key := range keys {
		addr, err := objstore.NewAddress(bucket, key)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

func fileUpload(bucket, keyPrefix, path string) (objstore.Upload, error) {
	parts := []string{filepath.Base(path)}
	if keyPrefix != "" {
		parts = append([]string{keyPrefix}, parts...)
	}
	addr, err := objstore.NewAddress(bucket, parts...)
	if err != nil {
		return objstore.Upload{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return objstore.Upload{}, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return objstore.Upload{}, err
	}
	return objstore.Upload{Address: addr, Size: info.Size(), Body: f}, nil
}

func closeBodies(uploads []objstore.Upload) {
	for _, u := range uploads {
		if closer, ok := u.Body.(io.Closer); ok {
			closer.Close()
		}
	}
}

// report waits for fi, prints every result and turns failures or an
// expired wait into a command error.
func report[T any](cmd *cobra.Command, name string, fi *fanin.FanIn[T], timeout time.Duration, render func(T) string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	result, waitErr := fi.Wait(ctx)

	for _, v := range result.Successes() {
		fmt.Fprintln(cmd.OutOrStdout(), render(v))
	}
	for _, err := range result.Failures() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", name, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d succeeded, %d failed, %d total\n",
		name, len(result.Successes()), len(result.Failures()), fi.Len())

	if waitErr != nil {
		return fmt.Errorf("%s: gave up with %d of %d settled: %w", name, result.Len(), fi.Len(), waitErr)
	}
	if result.HasFailures() {
		return fmt.Errorf("%s: %d of %d failed", name, len(result.Failures()), fi.Len())
	}
	return nil
}
