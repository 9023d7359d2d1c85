package store

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/facebookgo/clock"
	raven "github.com/getsentry/raven-go"
)

// A S3 store represents a store that is kept on AWS S3 storage.
// Do not change Bucket or Prefix concurrently with calls using the structure.
type S3 struct {
	svc    s3iface.S3API
	Bucket string
	Prefix string
	exists *existcache // keep HEAD info
}

var _ Store = &S3{}

// NewS3 creates a new S3 store. It will use the given bucket and will prepend
// prefix to all keys. This is to allow for a bucket to be used for more than
// one store. For example if prefix were "cache/" then a Get("hello") would
// look for the key "cache/hello" in the bucket. The authorization method and
// credentials in the session are used for all accesses.
func NewS3(bucket, prefix string, awsSession *session.Session) *S3 {
	return NewS3WithClient(bucket, prefix, s3.New(awsSession), nil)
}

// NewS3WithClient is like NewS3 but takes the S3 client to use and the clock
// used to expire cached HEAD results. A nil clock means the wall clock.
func NewS3WithClient(bucket, prefix string, svc s3iface.S3API, c clock.Clock) *S3 {
	return &S3{
		Bucket: bucket,
		Prefix: prefix,
		svc:    svc,
		exists: newExistCache(c),
	}
}

// List returns a list of all the keys in this store. It will only return ones
// that satisfy the store's Prefix, so it is safe to use this on a bucket
// containing other items.
func (s *S3) List() <-chan string {
	keys, err := s.ListPrefix("")
	return listFrom(keys, err, func(err error) {
		log.Println("S3 List:", s.Prefix, err)
	})
}

// ListPrefix returns the keys in this store that have the given prefix.
// The argument prefix is added to the store's Prefix.
func (s *S3) ListPrefix(prefix string) ([]string, error) {
	var result []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(s.Prefix + prefix),
	}
	err := s.svc.ListObjectsV2Pages(input,
		func(page *s3.ListObjectsV2Output, lastpage bool) bool {
			for _, item := range page.Contents {
				result = append(result, strings.TrimPrefix(*item.Key, s.Prefix))
			}
			return !lastpage
		})
	if err != nil {
		log.Println("S3 ListPrefix:", s.Prefix, prefix, err)
		raven.CaptureError(err, map[string]string{"Bucket": s.Bucket, "Prefix": s.Prefix, "Pattern": prefix})
	}
	return result, err
}

// Contains checks whether the key exists. Answers are cached, so repeated
// checks do not each cost a HEAD request.
func (s *S3) Contains(key string) (bool, error) {
	return s.exists.Get(key, s.head)
}

// Get downloads the whole object for key.
func (s *S3) Get(key string) ([]byte, error) {
	out, err := s.svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Prefix + key),
	})
	if isNotFound(err) {
		s.exists.Set(key, false)
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	var buf bytes.Buffer
	_, err = io.Copy(&buf, out.Body)
	if err != nil {
		return nil, err
	}
	s.exists.Set(key, true)
	return buf.Bytes(), nil
}

// Put uploads value as the object for key. S3 replaces objects atomically.
func (s *S3) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.svc.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Prefix + key),
		Body:   bytes.NewReader(value),
	})
	if err != nil {
		// we no longer know what is there
		s.exists.Forget(key)
		log.Println("S3 Put:", s.Prefix, key, err)
		raven.CaptureError(err, map[string]string{"Bucket": s.Bucket, "Prefix": s.Prefix, "Key": key})
		return err
	}
	s.exists.Set(key, true)
	return nil
}

// Delete will remove the given key from the store. The store's Prefix is
// prepended first. It is not an error to delete something that doesn't exist.
func (s *S3) Delete(key string) (bool, error) {
	existed, err := s.head(key)
	if err != nil {
		return false, err
	}
	if !existed {
		s.exists.Set(key, false)
		return false, nil
	}
	_, err = s.svc.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Prefix + key),
	})
	if err != nil {
		s.exists.Forget(key)
		log.Println("S3 Delete:", s.Prefix, key, err)
		raven.CaptureError(err, map[string]string{"Bucket": s.Bucket, "Prefix": s.Prefix, "Key": key})
		return false, err
	}
	s.exists.Set(key, false)
	return true, nil
}

// head implements the actual HEAD request to s3. You probably want to call
// Contains().
func (s *S3) head(key string) (bool, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Prefix + key),
	}
	_, err := s.svc.HeadObject(input)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// isNotFound decides whether err is S3's way of saying the key is missing.
// HEAD requests have no body, so only the status code is reliable there.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if reqerr, ok := err.(awserr.RequestFailure); ok {
		if reqerr.StatusCode() == http.StatusNotFound {
			return true
		}
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
