package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeConn captura las escrituras del hub sin un websocket real.
type fakeConn struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	f.mu.Lock()
	f.events = append(f.events, e)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeConn) count(eventType string, productionID int64) int {
	n := 0
	for _, e := range f.received() {
		if e.Type == eventType && e.ProductionID == productionID {
			n++
		}
	}
	return n
}

func allowAll(userID, productionID int64) (bool, error) { return true, nil }

func startHub(t *testing.T, membership MembershipChecker, snapshot SnapshotFunc) *Hub {
	t.Helper()
	hub := NewHub(membership, snapshot)
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func TestHubFanOutByProduction(t *testing.T) {
	hub := startHub(t, allowAll, nil)

	connA, connB := &fakeConn{}, &fakeConn{}
	clientA := hub.Register(connA, 1)
	clientB := hub.Register(connB, 2)

	require.NoError(t, hub.Subscribe(clientA, 10))
	require.NoError(t, hub.Subscribe(clientB, 20))

	hub.Publish("location_shares", 10, "UPDATE")

	require.Eventually(t, func() bool {
		return connA.count("change", 10) == 1
	}, time.Second, 5*time.Millisecond)

	// el cliente de la producción 20 nunca recibe cambios de la 10
	require.Equal(t, 0, connB.count("change", 10))
}

func TestHubStaleProductionDiscarded(t *testing.T) {
	hub := startHub(t, allowAll, nil)

	conn := &fakeConn{}
	client := hub.Register(conn, 1)

	require.NoError(t, hub.Subscribe(client, 10))
	require.Eventually(t, func() bool {
		return conn.count("subscribed", 10) == 1
	}, time.Second, 5*time.Millisecond)

	// cambio de producción: los eventos de la anterior ya no deben llegar
	require.NoError(t, hub.Subscribe(client, 20))
	require.Eventually(t, func() bool {
		return conn.count("subscribed", 20) == 1
	}, time.Second, 5*time.Millisecond)

	hub.Publish("location_shares", 10, "UPDATE")
	hub.Publish("location_shares", 20, "UPDATE")

	require.Eventually(t, func() bool {
		return conn.count("change", 20) == 1
	}, time.Second, 5*time.Millisecond)

	// el evento tardío de la producción 10 se descartó
	require.Equal(t, 0, conn.count("change", 10))
}

func TestHubMembershipEnforced(t *testing.T) {
	denyAll := func(userID, productionID int64) (bool, error) { return false, nil }
	hub := startHub(t, denyAll, nil)

	conn := &fakeConn{}
	client := hub.Register(conn, 1)

	err := hub.Subscribe(client, 10)
	require.ErrorIs(t, err, ErrNotAMember)
	require.Equal(t, 0, conn.count("subscribed", 10))
}

func TestHubSnapshotTickerKeepsFiring(t *testing.T) {
	snapshot := func(productionID int64) (interface{}, error) {
		return map[string]int64{"production": productionID}, nil
	}
	hub := NewHub(allowAll, snapshot)
	hub.SnapshotInterval = 30 * time.Millisecond
	go hub.Run()
	t.Cleanup(hub.Stop)

	conn := &fakeConn{}
	client := hub.Register(conn, 1)
	require.NoError(t, hub.Subscribe(client, 10))

	// sin publicar ningún cambio, los snapshots siguen llegando
	require.Eventually(t, func() bool {
		return conn.count("snapshot", 10) >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubUnregisterReleasesSubscription(t *testing.T) {
	hub := startHub(t, allowAll, nil)

	conn := &fakeConn{}
	client := hub.Register(conn, 1)
	require.NoError(t, hub.Subscribe(client, 10))
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	before := conn.count("change", 10)
	hub.Publish("location_shares", 10, "UPDATE")
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, before, conn.count("change", 10))
}
