package websocket

import "sync"

// Channel name helpers. A connection sits in its user channel from login,
// a room channel while in a room and a game channel while its room's game
// runs.
func userChannel(userID string) string { return "user:" + userID }
func roomChannel(roomID string) string { return "room:" + roomID }
func gameChannel(gameID string) string { return "game:" + gameID }

// hub groups connections into named channels and fans messages out to
// them. It knows nothing about the game; handlers decide which channels
// receive which view.
type hub struct {
	mu       sync.RWMutex
	channels map[string]map[*client]struct{}
}

func newHub() *hub {
	return &hub{
		channels: make(map[string]map[*client]struct{}),
	}
}

func (that *hub) join(channel string, c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	members, ok := that.channels[channel]
	if !ok {
		members = make(map[*client]struct{})
		that.channels[channel] = members
	}
	members[c] = struct{}{}
}

func (that *hub) leave(channel string, c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	members, ok := that.channels[channel]
	if !ok {
		return
	}

	delete(members, c)
	if len(members) == 0 {
		delete(that.channels, channel)
	}
}

// leaveAll detaches a connection from every channel it joined.
func (that *hub) leaveAll(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for channel, members := range that.channels {
		delete(members, c)
		if len(members) == 0 {
			delete(that.channels, channel)
		}
	}
}

// copyMembers joins every member of one channel into another, the way a
// room's connections collectively enter the game channel at creation.
func (that *hub) copyMembers(from, to string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	source, ok := that.channels[from]
	if !ok {
		return
	}

	target, ok := that.channels[to]
	if !ok {
		target = make(map[*client]struct{})
		that.channels[to] = target
	}

	for c := range source {
		target[c] = struct{}{}
	}
}

// clear disbands a channel entirely.
func (that *hub) clear(channel string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.channels, channel)
}

// broadcast sends to every member of a channel, optionally skipping the
// acting connection (which usually got a direct reply already). A client
// with a full send buffer is skipped rather than blocked on.
func (that *hub) broadcast(channel string, data []byte, except *client) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for c := range that.channels[channel] {
		if c == except {
			continue
		}
		c.enqueue(data)
	}
}
