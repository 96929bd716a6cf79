package rendezvous_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jacoelho/syncpipe/rendezvous"
)

func TestSendRecv(t *testing.T) {
	tx, rx := rendezvous.New(0)

	var wg sync.WaitGroup
	wg.Go(func() {
		if err := tx.Send([]byte("hello")); err != nil {
			t.Errorf("Send failed: %v", err)
		}
	})

	chunk, err := rx.Recv()
	if err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if string(chunk) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", chunk)
	}
	wg.Wait()
}

func TestTrySendWithoutReceiver(t *testing.T) {
	tx, _ := rendezvous.New(0)

	err := tx.TrySend([]byte("x"))
	expectError(t, err, rendezvous.ErrFull)
}

func TestTrySendWithWaitingReceiver(t *testing.T) {
	tx, rx := rendezvous.New(0)

	got := make(chan []byte, 1)
	go func() {
		chunk, _ := rx.Recv()
		got <- chunk
	}()

	deadline := time.Now().Add(time.Second)
	for {
		err := tx.TrySend([]byte("x"))
		if err == nil {
			break
		}
		expectError(t, err, rendezvous.ErrFull)
		if time.Now().After(deadline) {
			t.Fatalf("receiver never became ready")
		}
		time.Sleep(time.Millisecond)
	}

	if chunk := <-got; string(chunk) != "x" {
		t.Fatalf("expected %q, got %q", "x", chunk)
	}
}

func TestTrySendBuffered(t *testing.T) {
	tx, rx := rendezvous.New(1)

	if err := tx.TrySend([]byte("a")); err != nil {
		t.Fatalf("TrySend failed: %v", err)
	}
	expectError(t, tx.TrySend([]byte("b")), rendezvous.ErrFull)

	chunk, err := rx.TryRecv()
	if err != nil {
		t.Fatalf("TryRecv failed: %v", err)
	}
	if string(chunk) != "a" {
		t.Fatalf("expected %q, got %q", "a", chunk)
	}

	_, err = rx.TryRecv()
	expectError(t, err, rendezvous.ErrEmpty)
}

func TestReceiverClose(t *testing.T) {
	tx, rx := rendezvous.New(0)
	rx.Close()

	expectError(t, tx.Send([]byte("x")), rendezvous.ErrDisconnected)
	expectError(t, tx.TrySend([]byte("x")), rendezvous.ErrDisconnected)

	_, err := rx.Recv()
	expectError(t, err, rendezvous.ErrClosed)
}

func TestReceiverCloseSeenByEveryClone(t *testing.T) {
	tx, rx := rendezvous.New(0)
	clone := tx.Clone()
	defer clone.Close()

	if tx.Disconnected() || clone.Disconnected() {
		t.Fatalf("expected both senders connected before Close")
	}
	rx.Close()

	for _, s := range []*rendezvous.Sender{tx, clone} {
		if !s.Disconnected() {
			t.Fatalf("expected sender to see the closed receiver")
		}
		expectError(t, s.TrySend([]byte("x")), rendezvous.ErrDisconnected)
	}
}

func TestQueuedChunksDiscardedOnReceiverClose(t *testing.T) {
	tx, rx := rendezvous.New(1)

	if err := tx.TrySend([]byte("queued")); err != nil {
		t.Fatalf("TrySend failed: %v", err)
	}
	rx.Close()

	expectError(t, tx.Send([]byte("x")), rendezvous.ErrDisconnected)
	_, err := rx.TryRecv()
	expectError(t, err, rendezvous.ErrClosed)
}

func TestReceiverCloseUnblocksSend(t *testing.T) {
	tx, rx := rendezvous.New(0)

	var (
		wg      sync.WaitGroup
		sendErr error
	)
	wg.Go(func() {
		sendErr = tx.Send([]byte("blocked"))
	})

	time.Sleep(10 * time.Millisecond)
	rx.Close()

	wg.Wait()
	expectError(t, sendErr, rendezvous.ErrDisconnected)
}

func TestDisconnectAfterLastSender(t *testing.T) {
	tx, rx := rendezvous.New(0)
	clone := tx.Clone()

	tx.Close()
	_, err := rx.TryRecv()
	expectError(t, err, rendezvous.ErrEmpty)

	clone.Close()
	clone.Close()

	for range 3 {
		_, err = rx.Recv()
		expectError(t, err, rendezvous.ErrDisconnected)
	}
}

func TestQueuedChunksSurviveDisconnect(t *testing.T) {
	tx, rx := rendezvous.New(2)

	if err := tx.Send([]byte("a")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := tx.Send([]byte("b")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	tx.Close()

	for _, want := range []string{"a", "b"} {
		chunk, err := rx.Recv()
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		if string(chunk) != want {
			t.Fatalf("expected %q, got %q", want, chunk)
		}
	}

	_, err := rx.Recv()
	expectError(t, err, rendezvous.ErrDisconnected)
}

func TestSenderUseAfterClose(t *testing.T) {
	tx, _ := rendezvous.New(0)
	tx.Close()

	expectError(t, tx.Send([]byte("x")), rendezvous.ErrClosed)
	expectError(t, tx.TrySend([]byte("x")), rendezvous.ErrClosed)

	clone := tx.Clone()
	expectError(t, clone.Send([]byte("x")), rendezvous.ErrClosed)
}

func TestContextCancellation(t *testing.T) {
	t.Run("Send", func(t *testing.T) {
		tx, _ := rendezvous.New(0)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		expectError(t, tx.SendContext(ctx, []byte("x")), context.DeadlineExceeded)
	})

	t.Run("Recv", func(t *testing.T) {
		_, rx := rendezvous.New(0)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := rx.RecvContext(ctx)
		expectError(t, err, context.Canceled)
	})
}

func TestManySenders(t *testing.T) {
	tx, rx := rendezvous.New(0)

	const senders = 8
	var wg sync.WaitGroup
	for range senders {
		s := tx.Clone()
		wg.Go(func() {
			defer s.Close()
			if err := s.Send([]byte{1}); err != nil {
				t.Errorf("Send failed: %v", err)
			}
		})
	}
	tx.Close()

	received := 0
	for {
		_, err := rx.Recv()
		if errors.Is(err, rendezvous.ErrDisconnected) {
			break
		}
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		received++
	}
	wg.Wait()

	if received != senders {
		t.Fatalf("expected %d chunks, got %d", senders, received)
	}
}

func expectError(t *testing.T, err, expected error) {
	t.Helper()
	if !errors.Is(err, expected) {
		t.Fatalf("expected %v, got %v", expected, err)
	}
}
