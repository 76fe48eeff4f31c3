package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/internal/config"
	"warbler/internal/model"
)

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func upload(data []byte, contentType string) (multipart.File, *multipart.FileHeader) {
	header := &multipart.FileHeader{
		Filename: "img",
		Size:     int64(len(data)),
		Header:   textproto.MIMEHeader{},
	}
	if contentType != "" {
		header.Header.Set("Content-Type", contentType)
	}
	return memFile{bytes.NewReader(data)}, header
}

func TestReadAndValidateImage(t *testing.T) {
	data := pngBytes(t, 10, 10)

	file, header := upload(data, "")
	got, contentType, err := readAndValidateImage(file, header, model.MaxImageSizeBytes)
	require.NoError(t, err)
	assert.Equal(t, model.ContentTypePNG, contentType, "sniffed when no header")
	assert.Equal(t, data, got)

	file, header = upload([]byte(strings.Repeat("a", 64)), "text/plain; charset=utf-8")
	_, _, err = readAndValidateImage(file, header, model.MaxImageSizeBytes)
	assert.ErrorIs(t, err, model.ErrInvalidImageType)

	file, header = upload(data, model.ContentTypePNG)
	_, _, err = readAndValidateImage(file, header, 8)
	assert.ErrorIs(t, err, model.ErrFileTooLarge)
}

func TestResizeToJPEG(t *testing.T) {
	out, err := resizeToJPEG(pngBytes(t, 800, 300), model.ProfileImageWidth, model.ProfileImageHeight, 85)
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, model.ProfileImageWidth, img.Bounds().Dx())
	assert.Equal(t, model.ProfileImageHeight, img.Bounds().Dy())
}

func TestObjectKey(t *testing.T) {
	key := objectKey(model.HeaderImageFolder)
	assert.True(t, strings.HasPrefix(key, "header/"))
	assert.True(t, strings.HasSuffix(key, model.ImageExt))
}

func TestNewMediaService_Unconfigured(t *testing.T) {
	_, err := NewMediaService(context.Background(), &config.Config{})
	assert.ErrorIs(t, err, model.ErrMediaNotAvailable)
}

type fakeStore struct {
	puts    []*s3.PutObjectInput
	deletes []string
	putErr  error
}

func (f *fakeStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeStore) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestUploadHeaderImage(t *testing.T) {
	store := &fakeStore{}
	svc := newMediaService(store, "warbler", "https://cdn.example.com/")

	file, header := upload(pngBytes(t, 40, 40), model.ContentTypePNG)
	res, err := svc.UploadHeaderImage(context.Background(), file, header)
	require.NoError(t, err)

	require.Len(t, store.puts, 1)
	put := store.puts[0]
	assert.Equal(t, "warbler", aws.ToString(put.Bucket))
	assert.Equal(t, res.Key, aws.ToString(put.Key))
	assert.Equal(t, model.ContentTypeJPEG, aws.ToString(put.ContentType))
	assert.Equal(t, model.ImageCacheControl, aws.ToString(put.CacheControl))
	assert.Equal(t, "https://cdn.example.com/"+res.Key, res.URL)
	assert.True(t, strings.HasPrefix(res.Key, model.HeaderImageFolder+"/"))
}

func TestUploadProfileImage_StoreFailure(t *testing.T) {
	svc := newMediaService(&fakeStore{putErr: errors.New("bucket gone")}, "warbler", "https://cdn.example.com")

	file, header := upload(pngBytes(t, 40, 40), model.ContentTypePNG)
	_, err := svc.UploadProfileImage(context.Background(), file, header)
	assert.ErrorContains(t, err, "bucket gone")
}

func TestDeleteObject(t *testing.T) {
	store := &fakeStore{}
	svc := newMediaService(store, "warbler", "https://cdn.example.com")

	require.NoError(t, svc.DeleteObject(context.Background(), ""))
	require.NoError(t, svc.DeleteObject(context.Background(), "profile/a.jpg"))
	assert.Equal(t, []string{"profile/a.jpg"}, store.deletes)
}
