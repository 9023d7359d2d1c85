//go:build s3
// +build s3

package storetest

// tests the S3 store with an external service. Can use amazon s3, or can run
// a local service with the same API (e.g. Minio).
//
// To run from the command line
//
//    env "AWS_ACCESS_KEY_ID=XXXXX" "AWS_SECRET_ACCESS_KEY=YYYY" go test -tags=s3 -run S3

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/uuid"

	"github.com/ndlib/objectstore/store"
)

func getSession(t *testing.T) *session.Session {
	// This config is for a local hosted Minio.
	s3Config := &aws.Config{
		Endpoint:         aws.String("http://localhost:9000"),
		Region:           aws.String("us-east-1"),
		DisableSSL:       aws.Bool(true),
		S3ForcePathStyle: aws.Bool(true),
	}
	sess, err := session.NewSession(s3Config)
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestS3Conformance(t *testing.T) {
	s := store.NewS3("zoo", uuid.New().String()+"/", getSession(t))
	Conformance(t, s)
}

func TestS3Stress(t *testing.T) {
	s := store.NewS3("zoo", uuid.New().String()+"/", getSession(t))
	Stress(t, s, 0)
}
