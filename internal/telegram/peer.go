package telegram

import (
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"

	"github.com/pavelc4/clipnova-tg-bot/internal/cache"
)

// ResolvePeer builds the peer replies are sent to from the entities that
// arrived with an update. Button presses may arrive without entities; use
// Peers for those.
func ResolvePeer(peer tg.PeerClass, entities tg.Entities) (tg.InputPeerClass, error) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		if u, ok := entities.Users[p.UserID]; ok {
			return u.AsInputPeer(), nil
		}
	case *tg.PeerChat:
		if _, ok := entities.Chats[p.ChatID]; ok {
			return &tg.InputPeerChat{ChatID: p.ChatID}, nil
		}
	case *tg.PeerChannel:
		if c, ok := entities.Channels[p.ChannelID]; ok {
			return c.AsInputPeer(), nil
		}
	default:
		return nil, errors.Errorf("unsupported peer %T", peer)
	}
	return nil, errors.Errorf("peer %s missing from update entities", PeerKey(peer))
}

// PeerKey identifies a chat independent of its access hash.
func PeerKey(peer tg.PeerClass) string {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return "u" + strconv.FormatInt(p.UserID, 10)
	case *tg.PeerChat:
		return "c" + strconv.FormatInt(p.ChatID, 10)
	case *tg.PeerChannel:
		return "ch" + strconv.FormatInt(p.ChannelID, 10)
	default:
		return ""
	}
}

// Peers remembers input peers seen on messages. Button presses don't
// always carry the entities needed to resolve their chat.
type Peers struct {
	cache *cache.Cache[tg.InputPeerClass]
}

func NewPeers(ttl time.Duration) *Peers {
	return &Peers{cache: cache.New[tg.InputPeerClass](ttl)}
}

func (p *Peers) Remember(peer tg.PeerClass, input tg.InputPeerClass) {
	if key := PeerKey(peer); key != "" {
		p.cache.Set(key, input)
	}
}

// Resolve tries the entities first and falls back to a remembered peer.
func (p *Peers) Resolve(peer tg.PeerClass, entities tg.Entities) (tg.InputPeerClass, error) {
	input, err := ResolvePeer(peer, entities)
	if err == nil {
		p.Remember(peer, input)
		return input, nil
	}
	if cached, ok := p.cache.Get(PeerKey(peer)); ok {
		return cached, nil
	}
	return nil, err
}

func (p *Peers) Sweep() int {
	return p.cache.Sweep()
}

// SenderID returns the user who sent msg.
func SenderID(msg *tg.Message) int64 {
	if from, ok := msg.GetFromID(); ok {
		if user, ok := from.(*tg.PeerUser); ok {
			return user.UserID
		}
	}
	if peer, ok := msg.PeerID.(*tg.PeerUser); ok {
		return peer.UserID
	}
	return 0
}

// MessageID finds the id Telegram gave a message the bot just sent, so
// status and progress edits can target it. 0 means not found.
func MessageID(updates tg.UpdatesClass) int {
	var list []tg.UpdateClass
	switch u := updates.(type) {
	case *tg.UpdateShortSentMessage:
		return u.ID
	case *tg.Updates:
		list = u.Updates
	case *tg.UpdatesCombined:
		list = u.Updates
	}

	for _, update := range list {
		switch upd := update.(type) {
		case *tg.UpdateMessageID:
			return upd.ID
		case *tg.UpdateNewMessage:
			if m, ok := upd.Message.(*tg.Message); ok {
				return m.ID
			}
		case *tg.UpdateNewChannelMessage:
			if m, ok := upd.Message.(*tg.Message); ok {
				return m.ID
			}
		}
	}
	return 0
}
