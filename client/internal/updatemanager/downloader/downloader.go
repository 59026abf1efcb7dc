package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/netbirdio/autoupdate/version"
)

const (
	userAgent         = "%s launcher updater/%s"
	DefaultRetryDelay = 3 * time.Second
	DefaultRetries    = 1
)

// ErrVerification is returned when the downloaded content does not match the expected hash
var ErrVerification = errors.New("download verification failed")

// ProgressFunc receives the number of bytes written so far
type ProgressFunc func(completed int64)

// File is the destination of a download. It is rewound and truncated before a retry.
type File interface {
	io.Writer
	io.Seeker
	Truncate(size int64) error
}

// Downloader fetches update artifacts over HTTP and verifies their SHA-256 hash
type Downloader struct {
	client     *http.Client
	userAgent  string
	retryDelay time.Duration
	retries    uint64
}

// New returns a downloader identifying itself as the given product
func New(product string) *Downloader {
	return &Downloader{
		client:     http.DefaultClient,
		userAgent:  fmt.Sprintf(userAgent, product, version.AppVersion()),
		retryDelay: DefaultRetryDelay,
		retries:    DefaultRetries,
	}
}

// WithRetry overrides the retry policy; a zero delay or zero retries disables retrying
func (d *Downloader) WithRetry(delay time.Duration, retries uint64) *Downloader {
	d.retryDelay = delay
	d.retries = retries
	return d
}

// Download writes the content at url to dst and checks it against the hex encoded SHA-256 hash.
// A hash mismatch is returned as ErrVerification and is never retried.
func (d *Downloader) Download(ctx context.Context, url, expectedHash string, progress ProgressFunc, dst File) error {
	log.Debugf("starting download from %s", url)

	attempt := 0
	op := func() error {
		if attempt > 0 {
			if err := rewind(dst); err != nil {
				return backoff.Permanent(err)
			}
		}
		attempt++

		err := d.downloadOnce(ctx, url, expectedHash, progress, dst)
		if errors.Is(err, ErrVerification) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if d.retryDelay > 0 && d.retries > 0 {
		policy = backoff.WithMaxRetries(backoff.NewConstantBackOff(d.retryDelay), d.retries)
	}

	notify := func(err error, next time.Duration) {
		log.Warnf("download failed, retrying after %v: %v", next, err)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), notify); err != nil {
		return err
	}

	log.Infof("successfully downloaded and verified %s", url)
	return nil
}

// DownloadToMemory reads at most limit bytes from url
func (d *Downloader) DownloadToMemory(ctx context.Context, url string, limit int64) ([]byte, error) {
	resp, err := d.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", url, limit)
	}

	return data, nil
}

func (d *Downloader) downloadOnce(ctx context.Context, url, expectedHash string, progress ProgressFunc, out io.Writer) error {
	resp, err := d.get(ctx, url)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	hasher := sha256.New()
	w := &progressWriter{w: io.MultiWriter(out, hasher), progress: progress}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to write response body to file: %w", err)
	}

	return verify(hasher, expectedHash)
}

func (d *Downloader) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode)
	}
	return resp, nil
}

func verify(h hash.Hash, expectedHash string) error {
	actual := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(actual, strings.TrimSpace(expectedHash)) {
		return fmt.Errorf("%w: expected hash %s, got %s", ErrVerification, expectedHash, actual)
	}
	return nil
}

func rewind(f File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate file on retry: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to beginning of file: %w", err)
	}
	return nil
}

type progressWriter struct {
	w         io.Writer
	completed int64
	progress  ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.completed += int64(n)
	if p.progress != nil {
		p.progress(p.completed)
	}
	return n, err
}
