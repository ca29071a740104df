package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height, format
}

func TestTranscodeFitsWithoutEnlarging(t *testing.T) {
	big := Transcode(encodeJPEG(t, 2400, 1200), ListingVariant)
	w, h, format := decodedSize(t, big.Data)
	require.Equal(t, 1200, w)
	require.Equal(t, 600, h)
	require.Equal(t, "jpeg", format)
	require.Equal(t, ".jpg", big.Ext)

	small := Transcode(encodePNG(t, 300, 200), ListingVariant)
	w, h, format = decodedSize(t, small.Data)
	require.Equal(t, 300, w)
	require.Equal(t, 200, h)
	require.Equal(t, "png", format, "png inputs stay png")
}

func TestTranscodeProfileCover(t *testing.T) {
	out := Transcode(encodePNG(t, 1000, 600), ProfileVariant)
	w, h, format := decodedSize(t, out.Data)
	require.Equal(t, 512, w)
	require.Equal(t, 512, h)
	require.Equal(t, "jpeg", format)
	require.Equal(t, "image/jpeg", out.ContentType)
}

func TestTranscodeFallsBackToOriginalBytes(t *testing.T) {
	raw := []byte("definitely not an image")
	out := Transcode(raw, ListingVariant)
	require.Equal(t, raw, out.Data)
	require.Equal(t, ".bin", out.Ext)
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h grayscale
// pixels with no image data behind it.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	buf.Write(make([]byte, 64))
	return buf.Bytes()
}

func TestTranscodeSkipsOversizedDimensions(t *testing.T) {
	raw := pngHeader(20000, 20000)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 20000, cfg.Width)

	for _, variant := range []Variant{ListingVariant, ProfileVariant} {
		out := Transcode(raw, variant)
		require.Equal(t, raw, out.Data)
		require.Equal(t, "image/png", out.ContentType)
	}
}

func TestLocalStorePutDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Put(ctx, Object{Data: []byte("abc"), Ext: "jpg"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/"))
	require.True(t, strings.HasSuffix(url, ".jpg"))

	name := strings.TrimPrefix(url, "/uploads/")
	_, err = os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(filepath.Join(dir, name))
	require.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, store.Delete(ctx, url), "deleting a missing blob is not an error")
	require.ErrorIs(t, store.Delete(ctx, "https://cdn.example.com/a.jpg"), ErrForeignURL)
	require.ErrorIs(t, store.Delete(ctx, "/uploads/../secret"), ErrForeignURL)
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	failPut bool
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.failPut {
		return nil, errors.New("access denied")
	}
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StorePutDelete(t *testing.T) {
	api := &fakeS3{}
	store := newS3Store(api, "listings", "https://cdn.example.com", "/posts/")
	ctx := context.Background()

	url, err := store.Put(ctx, Object{Data: []byte("abc"), ContentType: "image/jpeg", Ext: ".jpg"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "https://cdn.example.com/posts/"))
	require.Len(t, api.puts, 1)
	require.Equal(t, "listings", *api.puts[0].Bucket)
	require.Equal(t, "image/jpeg", *api.puts[0].ContentType)

	require.NoError(t, store.Delete(ctx, url))
	require.Len(t, api.deletes, 1)
	require.Equal(t, strings.TrimPrefix(url, "https://cdn.example.com/"), *api.deletes[0].Key)

	require.ErrorIs(t, store.Delete(ctx, "/uploads/x.jpg"), ErrForeignURL)
}

type failingStore struct {
	puts    int
	failAt  int
	deleted []string
}

func (f *failingStore) Driver() string { return "fake" }

func (f *failingStore) Put(ctx context.Context, obj Object) (string, error) {
	f.puts++
	if f.puts == f.failAt {
		return "", errors.New("disk full")
	}
	return "/uploads/" + string(rune('a'+f.puts)) + obj.Ext, nil
}

func (f *failingStore) Delete(ctx context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return errors.New("ignored")
}

func TestImagesSaveAllRollsBackOnFailure(t *testing.T) {
	store := &failingStore{failAt: 3}
	images, err := NewImages(store)
	require.NoError(t, err)

	_, err = images.SaveAll(context.Background(), [][]byte{[]byte("1"), []byte("2"), []byte("3")}, ListingVariant)
	require.Error(t, err)
	require.Len(t, store.deleted, 2, "previously stored blobs are removed")
}

func TestImagesDeleteBestEffortSwallowsErrors(t *testing.T) {
	store := &failingStore{}
	images, err := NewImages(store)
	require.NoError(t, err)

	images.DeleteBestEffort(context.Background(), "/uploads/a.jpg", "", "/uploads/b.jpg")
	require.Equal(t, []string{"/uploads/a.jpg", "/uploads/b.jpg"}, store.deleted)
}
