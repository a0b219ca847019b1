// Package logger implements a per-device in-memory log buffer.
//
// Detailed lines accumulate while a device's export or enrichment pass is
// running. If the pass fails the buffer is replayed before the final error
// so the log shows the full story; if it succeeds the buffer is dropped
// and a single summary line is written.
//
// Thread safety comes from a dedicated logger goroutine fed by a command
// channel; there are no mutexes.
package logger

import (
	"bytes"
	"log"
	"strings"
	"time"
)

type action int

const (
	actBegin action = iota
	actAppend
	actSuccess
	actFlushErr
)

type cmd struct {
	act      action
	deviceID string
	message  string    // for Append
	summary  string    // for Success
	err      error     // for FlushError
	when     time.Time // ordering hint when replaying
}

var ch = make(chan cmd, 128) // buffered for bursts of per-event lines

// Begin starts buffering for deviceID.
func Begin(deviceID string) { ch <- cmd{act: actBegin, deviceID: deviceID, when: time.Now()} }

// Append adds one detailed line to the device's buffer. Without a prior
// Begin the line is logged immediately.
func Append(deviceID, msg string) {
	ch <- cmd{act: actAppend, deviceID: deviceID, message: msg, when: time.Now()}
}

// Success drops the buffer and writes one short summary line.
func Success(deviceID, summary string) {
	ch <- cmd{act: actSuccess, deviceID: deviceID, summary: summary, when: time.Now()}
}

// FlushError replays the buffered lines followed by the final error.
func FlushError(deviceID string, err error) {
	ch <- cmd{act: actFlushErr, deviceID: deviceID, err: err, when: time.Now()}
}

func init() { go runloop() }

func runloop() {
	buffers := make(map[string]*bytes.Buffer)

	for c := range ch {
		switch c.act {
		case actBegin:
			buffers[c.deviceID] = &bytes.Buffer{}

		case actAppend:
			if b := buffers[c.deviceID]; b != nil {
				_, _ = b.WriteString(c.message + "\n")
			} else {
				log.Print(c.message)
			}

		case actSuccess:
			log.Printf("[%-10s] ✔ %s", c.deviceID, c.summary)
			delete(buffers, c.deviceID)

		case actFlushErr:
			if b := buffers[c.deviceID]; b != nil {
				lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
				for _, ln := range lines {
					log.Print(ln)
				}
				delete(buffers, c.deviceID)
			}
			log.Printf("[%-10s][ERROR] %v", c.deviceID, c.err)
		}
	}
}
