package workerpool

import (
	"sync"
	"testing"
	"time"

	"github.com/qiuyinlan/threadpool/internal/testutil"
)

func idTask(id int, out *testutil.Recorder[int]) Task {
	return TaskFunc(func() error {
		out.Record(id)
		return nil
	})
}

func TestTaskQueueFIFO(t *testing.T) {
	q := newTaskQueue()
	var out testutil.Recorder[int]

	for i := 0; i < 100; i++ {
		testutil.AssertNoError(t, q.push(idTask(i, &out)))
	}
	testutil.AssertEqual(t, q.len(), 100)

	for i := 0; i < 100; i++ {
		task, ok := q.pop()
		testutil.AssertEqual(t, ok, true)
		testutil.AssertNoError(t, task.Execute())
	}

	for i, v := range out.Values() {
		testutil.AssertEqual(t, v, i)
	}
	testutil.AssertEqual(t, q.len(), 0)
}

func TestTaskQueuePushAfterClose(t *testing.T) {
	q := newTaskQueue()

	testutil.AssertEqual(t, q.close(), true)
	testutil.AssertEqual(t, q.close(), false)
	testutil.AssertEqual(t, q.isClosed(), true)

	err := q.push(TaskFunc(func() error { return nil }))
	testutil.AssertErrorIs(t, err, ErrPoolClosed)
	testutil.AssertEqual(t, q.len(), 0)
}

func TestTaskQueueDrainsAfterClose(t *testing.T) {
	q := newTaskQueue()
	var out testutil.Recorder[int]

	for i := 0; i < 3; i++ {
		testutil.AssertNoError(t, q.push(idTask(i, &out)))
	}
	q.close()

	for i := 0; i < 3; i++ {
		_, ok := q.pop()
		testutil.AssertEqual(t, ok, true)
	}
	task, ok := q.pop()
	testutil.AssertEqual(t, ok, false)
	testutil.AssertEqual(t, task, Task(nil))
}

func TestTaskQueuePopWaitsForPush(t *testing.T) {
	q := newTaskQueue()
	got := make(chan bool, 1)

	go func() {
		_, ok := q.pop()
		got <- ok
	}()

	select {
	case <-got:
		t.Fatal("pop returned on an empty open queue")
	case <-time.After(20 * time.Millisecond):
	}

	testutil.AssertNoError(t, q.push(TaskFunc(func() error { return nil })))

	select {
	case ok := <-got:
		testutil.AssertEqual(t, ok, true)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake after push")
	}
}

func TestTaskQueueCloseWakesAllWaiters(t *testing.T) {
	q := newTaskQueue()
	const waiters = 5

	var wg sync.WaitGroup
	results := make(chan bool, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := q.pop()
			results <- ok
		}()
	}

	time.Sleep(10 * time.Millisecond)
	q.close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("close did not wake every waiter")
	}

	close(results)
	for ok := range results {
		testutil.AssertEqual(t, ok, false)
	}
}

func TestTaskQueueCompacts(t *testing.T) {
	q := newTaskQueue()
	for i := 0; i < 1000; i++ {
		testutil.AssertNoError(t, q.push(TaskFunc(func() error { return nil })))
	}
	for i := 0; i < 995; i++ {
		q.pop()
	}

	q.mu.Lock()
	head := q.head
	q.mu.Unlock()

	testutil.AssertEqual(t, q.len(), 5)
	testutil.AssertEqual(t, head < compactMinHead, true)

	// Remaining tasks are still served in order.
	for i := 0; i < 5; i++ {
		_, ok := q.pop()
		testutil.AssertEqual(t, ok, true)
	}
	testutil.AssertEqual(t, q.len(), 0)
}
