package profile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	lerrors "github.com/vango-dev/loom/internal/errors"
)

// fakeS3 is an in-memory bucket. List pages hold at most pageSize keys.
type fakeS3 struct {
	objects  map[string][]byte
	meta     map[string]map[string]string
	pageSize int
	putErr   error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects:  make(map[string][]byte),
		meta:     make(map[string]map[string]string),
		pageSize: 2,
	}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.meta[key] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k == aws.ToString(in.ContinuationToken) {
				start = i
				break
			}
		}
	}
	end := min(start+f.pageSize, len(keys))

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := NewS3Store(fake, "bucket", "profiles/")

	p := sampleProfile()
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	key := "profiles/" + p.ID + ".json"
	if _, ok := fake.objects[key]; !ok {
		t.Fatalf("object %q not written", key)
	}
	if fake.meta[key]["scenario"] != "sample" {
		t.Errorf("metadata = %v", fake.meta[key])
	}

	got, err := store.Load(ctx, p.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ID != p.ID || len(got.Commits) != 1 {
		t.Errorf("Load() = %+v", got)
	}
}

func TestS3StoreListPaginates(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := NewS3Store(fake, "bucket", "profiles/")

	want := make([]string, 5)
	for i := range want {
		p := sampleProfile()
		want[i] = p.ID
		if err := store.Save(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	fake.objects["profiles/readme.json"] = []byte("{}")
	fake.objects["other/"+uuid.NewString()+".json"] = []byte("{}")
	sort.Strings(want)

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != len(want) {
		t.Fatalf("List() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestS3StoreNotFound(t *testing.T) {
	store := NewS3Store(newFakeS3(), "bucket", "")
	_, err := store.Load(context.Background(), uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestS3StoreSaveFailure(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	err := NewS3Store(fake, "bucket", "").Save(context.Background(), sampleProfile())

	var le *lerrors.Error
	if !errors.As(err, &le) || le.Code != "L150" {
		t.Fatalf("Save() error = %v, want L150", err)
	}
	if !strings.Contains(err.Error(), "access denied") {
		t.Errorf("cause lost: %v", err)
	}
}

func TestNewS3ClientEndpoint(t *testing.T) {
	client := NewS3Client("eu-west-1", "http://localhost:9000")
	opts := client.Options()
	if opts.Region != "eu-west-1" || !opts.UsePathStyle || aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" {
		t.Errorf("options = region %q, path style %v, endpoint %q", opts.Region, opts.UsePathStyle, aws.ToString(opts.BaseEndpoint))
	}
}
