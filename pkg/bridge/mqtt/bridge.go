package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/blackmoon/servo.go/pkg/msgs"
	"github.com/blackmoon/servo.go/pkg/serial"
)

// Setter sends a parameter to the board.
type Setter interface {
	SetParam(id serial.ParamID, value uint16) error
}

// Meta is published retained on <board>/meta while the bridge is online.
type Meta struct {
	Board  string   `json:"board"`
	Link   string   `json:"link,omitempty"`
	Params []string `json:"params"`
}

// Bridge exposes the tuning parameters of a board on MQTT.
//
// Topics, relative to the queue prefix:
//
//	<board>/param/<name>/set   decimal value to send to the board
//	<board>/param/<name>       msgs.ParamValue reported by the board
//	<board>/meta               retained Meta JSON, cleared on exit
type Bridge struct {
	Queue  *Queue
	Board  string
	Setter Setter

	metaJSON []byte
}

// NewBridge creates a Bridge connecting to brokerURL.
func NewBridge(brokerURL string, meta Meta, setter Setter) (*Bridge, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+meta.Board+"/meta", nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("servo:" + meta.Board)
	}
	return newBridge(NewQueue(opts, topicPrefix), meta, setter)
}

func newBridge(q *Queue, meta Meta, setter Setter) (*Bridge, error) {
	if meta.Board == "" {
		return nil, fmt.Errorf("board id is required")
	}
	if meta.Params == nil {
		for _, id := range serial.ParamIDs() {
			meta.Params = append(meta.Params, id.String())
		}
	}
	metaJSON, err := json.Marshal(&meta)
	if err != nil {
		return nil, err
	}
	b := &Bridge{Queue: q, Board: meta.Board, Setter: setter, metaJSON: metaJSON}
	q.OnConnect = func(*Queue) { b.publishMeta() }
	return b, nil
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "mqtt-bridge"
}

// Run implements Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.Queue.Sub(b.Board+"/param/+/set", b.handleSet)
	defer sub.Close()
	token := b.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	<-ctx.Done()
	b.Queue.PubWith(b.Board+"/meta", nil, 1, true).Wait()
	b.Queue.Close()
	return nil
}

// HandleParam implements tune.Handler. It publishes a board report.
func (b *Bridge) HandleParam(p serial.Param) {
	payload, err := msgs.Encode(msgs.NewParamValue(p))
	if err != nil {
		glog.Errorf("encode %s: %v", p, err)
		return
	}
	b.Queue.Pub(b.Board+"/param/"+p.ID.String(), payload)
}

func (b *Bridge) publishMeta() {
	b.Queue.PubWith(b.Board+"/meta", b.metaJSON, 1, true)
}

func (b *Bridge) handleSet(topic string, payload []byte) {
	tokens := strings.Split(topic, "/")
	if len(tokens) < 2 {
		return
	}
	id, err := serial.ParseParamID(tokens[len(tokens)-2])
	if err != nil {
		glog.Warningf("%s: %v", topic, err)
		return
	}
	value, err := strconv.ParseUint(strings.TrimSpace(string(payload)), 10, 16)
	if err != nil {
		glog.Warningf("%s: invalid value %q", topic, payload)
		return
	}
	if err := b.Setter.SetParam(id, uint16(value)); err != nil {
		glog.Errorf("set %s: %v", id, err)
	}
}
