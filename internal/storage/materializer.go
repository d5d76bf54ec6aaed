package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/maheshrc27/postflow-suggestions/internal/apperr"
	"github.com/maheshrc27/postflow-suggestions/internal/metrics"
)

const (
	maxImageBytes = 20 << 20
	// filetype needs at most this many leading bytes to match any type
	sniffLen = 262
)

// imageExtensions lists the stored image types in the order an existing
// file is looked up.
var imageExtensions = []string{"png", "jpg", "webp", "gif"}

// Materializer copies externally hosted images into a Store.
type Materializer struct {
	store  Store
	client *http.Client
	newID  func() (string, error)
}

func NewMaterializer(store Store, client *http.Client) *Materializer {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Materializer{
		store:  store,
		client: client,
		newID:  NewFileID,
	}
}

// NewFileID returns an opaque random file id. It is never derived from the
// source URL so concurrent batches cannot collide.
func NewFileID() (string, error) {
	return gonanoid.New()
}

// Materialize stores every remote image under a fresh id and returns the
// public URLs of the ones that succeeded, in input order. Failures are
// logged and dropped.
func (m *Materializer) Materialize(ctx context.Context, remoteURLs []string) []string {
	local := make([]string, 0, len(remoteURLs))
	for _, remote := range remoteURLs {
		id, err := m.newID()
		if err != nil {
			slog.Warn("image name generation failed", "error", err)
			metrics.ImagesMaterialized.WithLabelValues("failed").Inc()
			continue
		}
		url, err := m.MaterializeAs(ctx, id, remote)
		if err != nil {
			slog.Warn("image materialization degraded", "remote", remote, "error", err)
			continue
		}
		local = append(local, url)
	}
	return local
}

// MaterializeAs stores remote as id plus the extension sniffed from its
// content. If a file for id already exists with any accepted extension it
// is left untouched and no fetch happens.
func (m *Materializer) MaterializeAs(ctx context.Context, id, remote string) (string, error) {
	name, exists, err := m.existing(ctx, id)
	if err != nil {
		metrics.ImagesMaterialized.WithLabelValues("failed").Inc()
		return "", err
	}
	if exists {
		metrics.ImagesMaterialized.WithLabelValues("skipped").Inc()
		return m.store.URL(name), nil
	}

	name, err = m.fetch(ctx, id, remote)
	if err != nil {
		metrics.ImagesMaterialized.WithLabelValues("failed").Inc()
		return "", err
	}
	metrics.ImagesMaterialized.WithLabelValues("stored").Inc()
	return m.store.URL(name), nil
}

func (m *Materializer) existing(ctx context.Context, id string) (string, bool, error) {
	for _, ext := range imageExtensions {
		name := id + "." + ext
		exists, err := m.store.Exists(ctx, name)
		if err != nil {
			return "", false, err
		}
		if exists {
			return name, true, nil
		}
	}
	return "", false, nil
}

// fetch streams the download into the store. Only the leading bytes are
// buffered, for type sniffing.
func (m *Materializer) fetch(ctx context.Context, id, remote string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remote, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: image download returned %s", apperr.ErrUpstream, resp.Status)
	}
	if resp.ContentLength > maxImageBytes {
		return "", errImageTooLarge
	}

	body := &cappedReader{r: resp.Body, left: maxImageBytes}
	br := bufio.NewReaderSize(body, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		if body.err != nil {
			return "", body.err
		}
		return "", fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	if len(head) == 0 {
		return "", fmt.Errorf("%w: empty image body", apperr.ErrUpstream)
	}

	kind, err := filetype.Match(head)
	if err != nil || !filetype.IsImage(head) {
		return "", fmt.Errorf("%w: downloaded content is not an image", apperr.ErrUpstream)
	}
	if !accepted(kind.Extension) {
		return "", fmt.Errorf("%w: image type %s is not allowed", apperr.ErrUpstream, kind.Extension)
	}

	name := id + "." + kind.Extension
	if err := m.store.Save(ctx, name, br, kind.MIME.Value); err != nil {
		if body.err != nil {
			return "", body.err
		}
		return "", err
	}
	return name, nil
}

func accepted(ext string) bool {
	for _, e := range imageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

var errImageTooLarge = fmt.Errorf("%w: image exceeds %d bytes", apperr.ErrUpstream, maxImageBytes)

// cappedReader fails with errImageTooLarge once more than left bytes are
// read. Read errors from the source are kept in err so a failed Save can be
// reported as an upstream failure rather than a storage one.
type cappedReader struct {
	r    io.Reader
	left int64
	err  error
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if c.left <= 0 {
		var one [1]byte
		n, err := c.r.Read(one[:])
		if n > 0 {
			c.err = errImageTooLarge
			return 0, c.err
		}
		return 0, c.track(err)
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	return n, c.track(err)
}

func (c *cappedReader) track(err error) error {
	if err != nil && err != io.EOF {
		c.err = fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
		return c.err
	}
	return err
}
