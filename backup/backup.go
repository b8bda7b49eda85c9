// Package backup uploads compressed snapshots of the store file to
// S3-compatible storage and restores them.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kjk/weatherlog/atomicfile"
	"github.com/kjk/weatherlog/flatstore"
	"github.com/kjk/weatherlog/log"
	"github.com/kjk/weatherlog/u"
)

const (
	objectBase       = "store-"
	objectTimeFormat = "20060102-150405"
)

// ErrNoSnapshots is returned by Latest when there are no snapshots
var ErrNoSnapshots = errors.New("no snapshots")

type Config struct {
	Endpoint string
	Access   string
	Secret   string
	Bucket   string
	Region   string
	// prepended to object names, e.g. "weatherlog/"
	Prefix   string
	Insecure bool
	// "zstd" or "br"
	Compression string
}

type Client struct {
	Client *minio.Client
	config *Config
	Bucket string
}

func extForCompression(comp string) (string, error) {
	switch comp {
	case "zstd", "":
		return u.ExtZstd, nil
	case "br":
		return u.ExtBrotli, nil
	}
	return "", fmt.Errorf("unsupported compression '%s'", comp)
}

// ObjectName returns name of a snapshot taken at t.
// Names of snapshots with the same prefix sort by time.
func ObjectName(prefix string, t time.Time, comp string) (string, error) {
	ext, err := extForCompression(comp)
	if err != nil {
		return "", err
	}
	return prefix + objectBase + t.UTC().Format(objectTimeFormat) + ".txt" + ext, nil
}

// IsSnapshotName returns true if name looks like a name created by ObjectName
func IsSnapshotName(name string) bool {
	base := path.Base(name)
	if !strings.HasPrefix(base, objectBase) {
		return false
	}
	s := strings.TrimPrefix(base, objectBase)
	if len(s) < len(objectTimeFormat) {
		return false
	}
	if _, err := time.Parse(objectTimeFormat, s[:len(objectTimeFormat)]); err != nil {
		return false
	}
	ext := s[len(objectTimeFormat):]
	return ext == ".txt"+u.ExtZstd || ext == ".txt"+u.ExtBrotli
}

// LatestName returns the newest snapshot name, ignoring other objects
func LatestName(names []string) (string, error) {
	var snapshots []string
	for _, name := range names {
		if IsSnapshotName(name) {
			snapshots = append(snapshots, name)
		}
	}
	if len(snapshots) == 0 {
		return "", ErrNoSnapshots
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return path.Base(snapshots[i]) < path.Base(snapshots[j])
	})
	return snapshots[len(snapshots)-1], nil
}

// Snapshot returns compressed content of the store file, compressed
// according to name's extension. A store that doesn't exist yet
// is an empty snapshot.
func Snapshot(storePath string, name string) ([]byte, error) {
	d, err := os.ReadFile(storePath)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return u.CompressDataForPath(name, d)
}

// RestoreData decompresses a snapshot and replaces the store with it.
// The store is only replaced if every line of the snapshot is a valid record.
func RestoreData(storePath string, name string, compressed []byte) (int, error) {
	d, err := u.DecompressDataForPath(name, compressed)
	if err != nil {
		return 0, fmt.Errorf("decompressing '%s' failed with '%s'", name, err)
	}
	records, err := flatstore.ParseRecords(d)
	if err != nil {
		return 0, fmt.Errorf("snapshot '%s' is not valid: %w", name, err)
	}
	if err = u.EnsureParentDir(storePath); err != nil {
		return 0, err
	}
	if err = atomicfile.WriteFile(storePath, d, 0644); err != nil {
		return 0, err
	}
	return len(records), nil
}

func New(ctx context.Context, config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("must provide config")
	}
	cfg := *config
	c := &cfg
	// snapshots are matched by base name so prefix must act as a directory
	if c.Prefix != "" && !strings.HasSuffix(c.Prefix, "/") {
		c.Prefix += "/"
	}
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return nil, errors.New("backup not configured: must set WEATHERLOG_BACKUP_ENDPOINT, _ACCESS, _SECRET and _BUCKET")
	}
	if _, err := extForCompression(c.Compression); err != nil {
		return nil, err
	}

	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &Client{
		Client: mc,
		config: c,
		Bucket: c.Bucket,
	}, nil
}

// Upload uploads a snapshot of the store taken at now and returns its name
func (c *Client) Upload(ctx context.Context, storePath string, now time.Time) (string, error) {
	name, err := ObjectName(c.config.Prefix, now, c.config.Compression)
	if err != nil {
		return "", err
	}
	// Latest only sees names that pass IsSnapshotName
	u.PanicIf(!IsSnapshotName(name), "'%s' is not a valid snapshot name", name)
	d, err := Snapshot(storePath, name)
	if err != nil {
		return "", err
	}
	opts := minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	}
	timeStart := time.Now()
	_, err = c.Client.PutObject(ctx, c.Bucket, name, bytes.NewReader(d), int64(len(d)), opts)
	if err != nil {
		return "", fmt.Errorf("uploading '%s' failed with '%s'", name, err)
	}
	log.Logf("backup: uploaded '%s' (%s) in %s\n", name, u.FormatSize(int64(len(d))), time.Since(timeStart))
	return name, nil
}

// Names lists objects under configured prefix
func (c *Client) Names(ctx context.Context) ([]string, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    c.config.Prefix,
		Recursive: true,
	}
	var res []string
	for obj := range c.Client.ListObjects(ctx, c.Bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		res = append(res, obj.Key)
	}
	return res, nil
}

// Latest returns name of the newest snapshot
func (c *Client) Latest(ctx context.Context) (string, error) {
	names, err := c.Names(ctx)
	if err != nil {
		return "", err
	}
	return LatestName(names)
}

// Download returns compressed content of a snapshot
func (c *Client) Download(ctx context.Context, name string) ([]byte, error) {
	obj, err := c.Client.GetObject(ctx, c.Bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer u.CloseNoError(obj)
	return io.ReadAll(obj)
}

// Restore replaces the store with a snapshot. If name is empty,
// uses the newest snapshot. Returns name of restored snapshot and
// number of records in it.
func (c *Client) Restore(ctx context.Context, storePath string, name string) (string, int, error) {
	var err error
	if name == "" {
		name, err = c.Latest(ctx)
		if err != nil {
			return "", 0, err
		}
	}
	d, err := c.Download(ctx, name)
	if err != nil {
		return "", 0, fmt.Errorf("downloading '%s' failed with '%s'", name, err)
	}
	n, err := RestoreData(storePath, name, d)
	if err != nil {
		return "", 0, err
	}
	log.Logf("backup: restored %d records from '%s'\n", n, name)
	return name, n, nil
}
