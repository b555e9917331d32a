// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"nebula/internal/analysis"
	applog "nebula/internal/log"
)

// EnergyProvider supplies the latest calibrated band energies.
type EnergyProvider interface {
	Energies() analysis.Energies
}

// Publisher periodically reads the current band energies, packs them
// into a binary packet and sends them over UDP. It runs in its own
// goroutine managed by Start and Stop.
type Publisher struct {
	sender   *Sender
	provider EnergyProvider
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop

	sequenceNum  uint32
	packetBuffer *bytes.Buffer // Reusable packet buffer
}

// bandCount is the number of float32 values in every packet payload.
const bandCount = 5

// NewPublisher creates a Publisher. An interval <= 0 defaults to 16ms
// (~60Hz).
func NewPublisher(interval time.Duration, sender *Sender, provider EnergyProvider) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if provider == nil {
		return nil, fmt.Errorf("udp publisher: energy provider cannot be nil")
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDP: Invalid publish interval, defaulting to %s", interval)
	}

	return &Publisher{
		sender:       sender,
		provider:     provider,
		interval:     interval,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the publishing goroutine. Calling Start while already
// running is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDP: Start called but publisher already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Capture for the goroutine to avoid races with Stop.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDP: Publisher running (interval %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publishing goroutine to terminate and waits for it.
// Safe to call multiple times.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDP: Publisher stopped")
	return nil
}

/*
UDP Packet Structure (BigEndian)

+---------------------------------------------------------------------------+
| Field           | Data Type | Size (Bytes) | Description                  |
|-----------------|-----------|--------------|------------------------------|
| Sequence Number | uint32    | 4            | Monotonically increasing     |
| Timestamp       | int64     | 8            | Nanoseconds since epoch      |
| Band Count      | uint16    | 2            | Number of floats (always 5)  |
| Band Energies   | []float32 | 5 * 4        | subBass..highs, in order     |
+---------------------------------------------------------------------------+
*/

// buildAndSendPacket packs the current energies and sends one packet.
func (p *Publisher) buildAndSendPacket() {
	e := p.provider.Energies()
	payload := [bandCount]float32{
		float32(e.SubBass),
		float32(e.Bass),
		float32(e.LowMids),
		float32(e.HighMids),
		float32(e.Highs),
	}

	p.sequenceNum++
	timestamp := time.Now().UnixNano()

	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(bandCount))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, payload)
	}
	if err != nil {
		applog.Errorf("UDP: Error packing energy packet: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		applog.Debugf("UDP: Sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	}
}

// Close implements io.Closer. It gracefully stops the publisher.
func (p *Publisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*Publisher)(nil)
