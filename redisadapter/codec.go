package redisadapter

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	sio "github.com/ramory-l/gosocketio-cluster"
)

// wirePacket is the binary analogue of gosocketio.Packet carried over the
// bus. It round-trips Type/Namespace/Data/ID exactly, defaulting Nsp to "/"
// on decode when the sender omitted it.
type wirePacket struct {
	Type PacketType  `msgpack:"type"`
	Nsp  string      `msgpack:"nsp"`
	Data interface{} `msgpack:"data"`
	ID   *int        `msgpack:"id,omitempty"`
}

// PacketType mirrors gosocketio.PacketType so this package's wire format
// doesn't need to import the numeric constants from the root package every
// time a packet crosses the bus.
type PacketType = sio.PacketType

func toWirePacket(p *sio.Packet) wirePacket {
	nsp := p.Namespace
	if nsp == "" {
		nsp = "/"
	}
	return wirePacket{Type: p.Type, Nsp: nsp, Data: p.Data, ID: p.ID}
}

func (w wirePacket) toPacket() *sio.Packet {
	nsp := w.Nsp
	if nsp == "" {
		nsp = "/"
	}
	return &sio.Packet{Type: w.Type, Namespace: nsp, Data: w.Data, ID: w.ID}
}

// wireOpts is the binary analogue of a broadcast's rooms/except/flags.
type wireOpts struct {
	Rooms  []string               `msgpack:"rooms"`
	Except []string               `msgpack:"except"`
	Flags  map[string]interface{} `msgpack:"flags,omitempty"`
}

// broadcastMessage is [sender_uid, packet, opts], the shape published to a
// namespace or room channel.
type broadcastMessage struct {
	UID    string
	Packet wirePacket
	Opts   wireOpts
}

func encodeBroadcast(uid string, packet *sio.Packet, rooms, except []string, flags map[string]interface{}) ([]byte, error) {
	return msgpack.Marshal([]interface{}{
		uid,
		toWirePacket(packet),
		wireOpts{Rooms: rooms, Except: except, Flags: flags},
	})
}

func decodeBroadcast(payload []byte) (broadcastMessage, error) {
	var tuple [3]msgpack.RawMessage
	if err := msgpack.Unmarshal(payload, &tuple); err != nil {
		return broadcastMessage{}, fmt.Errorf("decode broadcast envelope: %w", err)
	}

	var uid string
	if err := msgpack.Unmarshal(tuple[0], &uid); err != nil {
		return broadcastMessage{}, fmt.Errorf("decode broadcast uid: %w", err)
	}

	var packet wirePacket
	if err := msgpack.Unmarshal(tuple[1], &packet); err != nil {
		return broadcastMessage{}, fmt.Errorf("decode broadcast packet: %w", err)
	}

	var opts wireOpts
	if err := msgpack.Unmarshal(tuple[2], &opts); err != nil {
		return broadcastMessage{}, fmt.Errorf("decode broadcast opts: %w", err)
	}

	return broadcastMessage{UID: uid, Packet: packet, Opts: opts}, nil
}

// clientsRequest is [namespace, sender_uid, query_uid, rooms].
type clientsRequest struct {
	Namespace string
	UID       string
	MUID      string
	Rooms     []string
}

func encodeClientsRequest(nsp, uid, muid string, rooms []string) ([]byte, error) {
	return msgpack.Marshal([]interface{}{nsp, uid, muid, rooms})
}

func decodeClientsRequest(payload []byte) (clientsRequest, error) {
	var tuple [4]msgpack.RawMessage
	if err := msgpack.Unmarshal(payload, &tuple); err != nil {
		return clientsRequest{}, fmt.Errorf("decode clients request envelope: %w", err)
	}

	var req clientsRequest
	if err := msgpack.Unmarshal(tuple[0], &req.Namespace); err != nil {
		return clientsRequest{}, fmt.Errorf("decode clients request namespace: %w", err)
	}
	if err := msgpack.Unmarshal(tuple[1], &req.UID); err != nil {
		return clientsRequest{}, fmt.Errorf("decode clients request uid: %w", err)
	}
	if err := msgpack.Unmarshal(tuple[2], &req.MUID); err != nil {
		return clientsRequest{}, fmt.Errorf("decode clients request muid: %w", err)
	}
	// A nil rooms list leaves tuple[3] empty; that means "no filter".
	if len(tuple[3]) > 0 {
		if err := msgpack.Unmarshal(tuple[3], &req.Rooms); err != nil {
			return clientsRequest{}, fmt.Errorf("decode clients request rooms: %w", err)
		}
	}
	return req, nil
}

// encodeClientsResponse encodes [sids].
func encodeClientsResponse(sids []string) ([]byte, error) {
	return msgpack.Marshal([]interface{}{sids})
}

func decodeClientsResponse(payload []byte) ([]string, error) {
	var tuple [1][]string
	if err := msgpack.Unmarshal(payload, &tuple); err != nil {
		return nil, fmt.Errorf("decode clients response: %w", err)
	}
	return tuple[0], nil
}
