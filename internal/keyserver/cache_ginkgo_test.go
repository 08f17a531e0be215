package keyserver_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sealhq/core/internal/keyserver"
)

var _ = Describe("Cache", func() {
	var cache *keyserver.Cache[string, int]

	BeforeEach(func() {
		cache = keyserver.NewCache[string, int](50*time.Millisecond, 4)
	})

	It("returns a miss for a key that was never inserted", func() {
		_, ok := cache.Get("missing")
		Expect(ok).To(BeFalse())
	})

	It("serves an inserted value before it expires", func() {
		cache.Insert("a", 1)
		v, ok := cache.Get("a")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(1))
	})

	It("evicts an entry once its ttl elapses", func() {
		cache.Insert("a", 1)
		time.Sleep(75 * time.Millisecond)
		_, ok := cache.Get("a")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Broadcaster", func() {
	var b *keyserver.Broadcaster[uint64]

	BeforeEach(func() {
		b = keyserver.NewBroadcaster[uint64]()
	})

	It("has nothing populated until the first Set", func() {
		_, ok := b.Get()
		Expect(ok).To(BeFalse())
	})

	It("wakes a waiter as soon as a value is set", func() {
		done := make(chan uint64, 1)
		go func() {
			v, err := b.Wait(context.Background())
			if err == nil {
				done <- v
			}
		}()
		time.Sleep(10 * time.Millisecond)
		b.Set(42)
		Eventually(done).Should(Receive(Equal(uint64(42))))
	})

	It("returns the context error when cancelled before any Set", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := b.Wait(ctx)
		Expect(err).To(HaveOccurred())
	})
})
