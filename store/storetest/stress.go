// Package storetest provides functions for facilitating the testing of anything
// implementing the Store interface.
package storetest

import (
	"crypto/md5"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/ndlib/objectstore/store"
)

type blob struct {
	key  string
	hash []byte
	size int
}

// Stress will spawn a number of goroutines to simultainously try reading and
// writing to the given store. It is a good test to run with the -race flag to
// try to find race conditions.
//
// Generate a list of sizes, until their sum is >= totalsize.
// For each size, upload a random blob of that size, and then download it
// and compare it for correctness.
//
// randomly delete the blob or try downloading it again.
// At some point every blob will be deleted. End the test.
//
// Note, this does not test the list or list prefix functions.
func Stress(t *testing.T, s store.Store, totalsize int) {
	// the pipeline is
	//       size maker
	// sizes ----> uploader pool
	// dwnld ----> downloader pool (possible repeat)
	//       ----> delete
	if totalsize == 0 {
		totalsize = 10 * 1000 * 1000 // 10MB
	}
	sizes := make(chan int)
	dwnld := make(chan blob, 1000)
	done := make(chan struct{})
	var uppool, downpool sync.WaitGroup

	for i := 0; i < 5; i++ {
		uppool.Add(1)
		go func(seed int64) {
			uploader(t, s, rand.New(rand.NewSource(seed)), sizes, dwnld)
			uppool.Done()
		}(int64(i))
	}

	for i := 0; i < 10; i++ {
		downpool.Add(1)
		go func() {
			downloader(t, s, dwnld, done)
			downpool.Done()
		}()
	}

	generatesizes(sizes, totalsize)
	close(sizes)
	uppool.Wait()
	close(done)
	downpool.Wait()
}

func uploader(t *testing.T, s store.Store, r *rand.Rand, in <-chan int, out chan<- blob) {
	for size := range in {
		// values are text, so use printable characters only
		value := make([]byte, size)
		for i := range value {
			value[i] = byte(' ' + r.Intn(95))
		}
		// the key is a random run of lower case letters. They may collide,
		// which is fine since Put replaces.
		klen := 1 + r.Intn(63)
		key := make([]byte, klen)
		for i := range key {
			key[i] = byte('a' + r.Intn(26))
		}
		keystr := string(key)
		err := s.Put(keystr, value)
		if err != nil {
			t.Error(err)
			continue
		}
		h := md5.Sum(value)
		out <- blob{key: keystr, hash: h[:], size: size}
	}
}

func downloader(t *testing.T, s store.Store, in chan blob, done <-chan struct{}) {
	for {
		var blob blob
		select {
		case <-done:
			return
		case blob = <-in:
		}
		value, err := s.Get(blob.key)
		if err == store.ErrNotExist {
			// another uploader picked the same key and it has since been
			// deleted
			continue
		} else if err != nil {
			t.Error(err)
			continue
		}
		h := md5.Sum(value)
		if len(value) != blob.size || string(h[:]) != string(blob.hash) {
			// a colliding key may have replaced the value; only
			// complain when nothing else could have written it
			if len(blob.key) > 8 {
				t.Errorf("value mismatch for %s. expected size %d, got %d", blob.key, blob.size, len(value))
			}
			continue
		}

		// figure out what to do next
		x := rand.Float32()
		switch {
		case x < 0.5:
			_, err := s.Delete(blob.key)
			if err != nil {
				t.Error(err)
			}
		default:
			// reinsert once
			select {
			case in <- blob:
			default:
				s.Delete(blob.key)
			}
		}
	}
}

func generatesizes(out chan<- int, totalsize int) {
	// We want a wide range of sizes, so generate the exponent of the size
	// uniformly at random.
	//  choose number x ~ uniform(0, 14)
	//  let size be exp(x)
	for totalsize > 0 {
		x := 14 * rand.Float64()
		size := int(math.Trunc(math.Exp(x)))
		out <- size
		totalsize -= size
	}
}
