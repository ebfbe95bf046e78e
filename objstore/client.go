package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/panyam/fanin"
	"github.com/panyam/fanin/data"
	"github.com/panyam/fanin/internal/logger"
)

const DefaultConcurrency = 8

var ErrEmptyObject = errors.New("objstore: empty object")

// Download is the content of one downloaded object.
type Download struct {
	Address Address
	Content string
}

// Upload describes one object to upload. Body is closed after the upload if
// it implements io.Closer.
type Upload struct {
	Address Address
	Size    int64
	Body    io.Reader
}

// Client runs single and batched object operations against a Store.
type Client struct {
	store       Store
	log         *logger.Logger
	concurrency int
}

type ClientOption func(*Client)

func WithLogger(log *logger.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithConcurrency bounds how many operations of a batch run at once.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func NewClient(store Store, opts ...ClientOption) *Client {
	c := &Client{store: store, log: logger.Nop(), concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("service", "objstore")
	return c
}

// List returns the objects under prefix in bucket.
func (c *Client) List(ctx context.Context, bucket, prefix string) (*Listing, error) {
	if bucket == "" {
		return nil, ErrBlankBucket
	}
	objects, err := c.store.List(ctx, bucket, prefix)
	if err != nil {
		c.log.Warn("Could not list objects", "bucket", bucket, "prefix", prefix, "error", err)
		return nil, err
	}
	return &Listing{Bucket: bucket, Prefix: prefix, Objects: objects}, nil
}

// DownloadString reads an object as a string. Objects larger than maxSize
// are truncated to maxSize bytes.
func (c *Client) DownloadString(ctx context.Context, addr Address, maxSize int) (string, error) {
	if maxSize <= 0 {
		return "", data.ErrInvalidSize
	}
	c.log.Debug("Downloading", "address", addr.String(), "max_size", maxSize)
	r, size, err := c.store.NewReader(ctx, addr)
	if err != nil {
		return "", err
	}
	defer r.Close()

	if size <= 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyObject, addr)
	}
	if size > int64(maxSize) {
		c.log.Warn("Object is bigger than expected, reading a prefix only",
			"address", addr.String(), "size", size, "max_size", maxSize)
		size = int64(maxSize)
	}
	buf := data.New(maxSize)
	if err := buf.Load(size, r); err != nil {
		return "", fmt.Errorf("download %s: %w", addr, err)
	}
	return buf.String(), nil
}

// Upload writes exactly size bytes from body to addr. A short body aborts the
// upload and nothing is committed.
func (c *Client) Upload(ctx context.Context, addr Address, size int64, body io.Reader) error {
	if closer, ok := body.(io.Closer); ok {
		defer closer.Close()
	}
	if size <= 0 {
		return data.ErrInvalidSize
	}
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := c.store.NewWriter(wctx, addr)
	if _, err := io.CopyN(w, body, size); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", addr, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload %s: %w", addr, err)
	}
	c.log.Debug("Uploaded", "address", addr.String(), "size", size)
	return nil
}

func (c *Client) Delete(ctx context.Context, addr Address) error {
	return c.store.Delete(ctx, addr)
}

// DownloadAll downloads every address concurrently.
func (c *Client) DownloadAll(ctx context.Context, addrs []Address, maxSize int) (*fanin.FanIn[Download], error) {
	return runBatch(ctx, c, "download", addrs, func(ctx context.Context, addr Address) (Download, error) {
		content, err := c.DownloadString(ctx, addr, maxSize)
		if err != nil {
			return Download{}, err
		}
		return Download{Address: addr, Content: content}, nil
	})
}

// UploadAll uploads every item concurrently.
func (c *Client) UploadAll(ctx context.Context, uploads []Upload) (*fanin.FanIn[Address], error) {
	return runBatch(ctx, c, "upload", uploads, func(ctx context.Context, u Upload) (Address, error) {
		return u.Address, c.Upload(ctx, u.Address, u.Size, u.Body)
	})
}

// DeleteAll deletes every object in listing concurrently.
func (c *Client) DeleteAll(ctx context.Context, listing *Listing) (*fanin.FanIn[Address], error) {
	return runBatch(ctx, c, "delete", listing.Addresses(), func(ctx context.Context, addr Address) (Address, error) {
		return addr, c.Delete(ctx, addr)
	})
}

// runBatch starts op for each item on a worker pool bounded by the client's
// concurrency and fans the results in. Items not yet started when ctx is
// done are recorded as cancelled.
func runBatch[I any, O any](ctx context.Context, c *Client, name string, items []I, op func(context.Context, I) (O, error)) (*fanin.FanIn[O], error) {
	log := c.log.With("batch", uuid.NewString(), "op", name)

	futures := make([]*fanin.Future[O], len(items))
	for i := range futures {
		futures[i] = fanin.NewFuture[O]()
	}
	fi, err := fanin.New(futures, fanin.WithLogger(log.Zap()), fanin.WithName(name))
	if err != nil {
		return nil, err
	}
	log.Info("Starting batch", "items", len(items), "concurrency", c.concurrency)

	go func() {
		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for i, item := range items {
			future := futures[i]
			if ctx.Err() != nil {
				future.Cancel()
				continue
			}
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						future.Fail(&fanin.PanicError{Value: r})
					}
				}()
				value, err := op(ctx, item)
				if err != nil {
					log.Warn("Batch item failed", "item", i, "error", err)
					future.Fail(err)
					return nil
				}
				future.Complete(value)
				return nil
			})
		}
		_ = g.Wait()
	}()
	return fi, nil
}
