package api

import (
	"strconv"
	"sync"
	"testing"

	"github.com/coder/websocket"
)

type fakeConn struct {
	mu     sync.Mutex
	closed []websocket.StatusCode
}

func (c *fakeConn) Close(code websocket.StatusCode, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = append(c.closed, code)
	return nil
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.closed)
}

func TestChatSessions_Register(t *testing.T) {
	sm := NewChatSessions()
	conn := &fakeConn{}

	sm.Register("user123", "tab-1", conn)

	if active := sm.GetActive("user123", "tab-1"); active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
}

func TestChatSessions_ReplaceClosesPrevious(t *testing.T) {
	sm := NewChatSessions()
	old, fresh := &fakeConn{}, &fakeConn{}

	sm.Register("user123", "tab-1", old)
	sm.Register("user123", "tab-1", fresh)

	if old.closeCount() != 1 {
		t.Errorf("Expected replaced connection to be closed once, got %d", old.closeCount())
	}
	if fresh.closeCount() != 0 {
		t.Error("New connection must stay open")
	}
	// Late unregister of the replaced socket must not drop the new one.
	sm.Unregister("user123", "tab-1", old)
	if sm.GetActive("user123", "tab-1") != fresh {
		t.Error("Stale unregister removed the active connection")
	}
}

func TestChatSessions_UnregisterStale(t *testing.T) {
	sm := NewChatSessions()
	conn1, conn2 := &fakeConn{}, &fakeConn{}

	sm.Register("user123", "tab-1", conn1)
	sm.Register("user123", "tab-2", conn2)
	sm.Unregister("user123", "tab-1", conn1)

	if sm.GetActive("user123", "tab-1") != nil {
		t.Error("Expected tab-1 to be removed")
	}
	if active := sm.GetActive("user123", "tab-2"); active != conn2 {
		t.Errorf("Expected connection %v, got %v", conn2, active)
	}
	if sm.Count() != 1 {
		t.Errorf("Expected 1 open connection, got %d", sm.Count())
	}
}

func TestChatSessions_CloseAll(t *testing.T) {
	sm := NewChatSessions()
	conns := []*fakeConn{{}, {}, {}}
	sm.Register("a", "1", conns[0])
	sm.Register("a", "2", conns[1])
	sm.Register("b", "1", conns[2])

	sm.CloseAll()

	for i, c := range conns {
		if c.closeCount() != 1 || c.closed[0] != websocket.StatusGoingAway {
			t.Errorf("conn %d: expected one going-away close, got %v", i, c.closed)
		}
	}
	if sm.Count() != 0 {
		t.Errorf("Expected empty registry, got %d", sm.Count())
	}
}

func TestChatSessions_ConcurrentAccess(t *testing.T) {
	sm := NewChatSessions()
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			sm.Register("concurrentUser", "tab-"+strconv.Itoa(i), &fakeConn{})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			sm.GetActive("concurrentUser", "tab-"+strconv.Itoa(i))
		}
	}()

	wg.Wait()
	if sm.Count() != 1000 {
		t.Errorf("Expected 1000 connections, got %d", sm.Count())
	}
}
