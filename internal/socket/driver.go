// Package socket implements the node's IP multicast transport: joining
// the shared group, a send FIFO drained on write-readiness, and a
// background read loop feeding inbound datagrams to the node's event
// loop through a channel.
package socket

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/ev3kit/nn/internal/constants"
	"github.com/ev3kit/nn/internal/interfaces"
)

// ErrClosed is returned by Send and Pump once the driver has been
// closed.
var ErrClosed = errors.New("socket: driver closed")

// Config holds the knobs needed to open a Driver.
type Config struct {
	Port          int
	Group         string // defaults to constants.MulticastGroup
	InterfaceName string // empty: let the OS pick a multicast-capable interface
	Logger        interfaces.Logger
}

// Driver is a UDP multicast transport implementing interfaces.Socket.
// Sends are queued and handed to the kernel one per Pump call; receives
// happen continuously on a background goroutine (UDP reads are
// unavoidably blocking) and are handed to Pump's caller one per call
// through a buffered channel, keeping the node's own event loop
// single-threaded the same way the teacher's Runner.ioLoop is the only
// goroutine that touches mutable per-tag state.
type Driver struct {
	conn      *net.UDPConn
	pc        *ipv4.PacketConn
	groupAddr *net.UDPAddr
	logger    interfaces.Logger

	sendMu   sync.Mutex
	sendFIFO [][]byte

	recvCh    chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
}

// Open binds a UDP socket on cfg.Port, sets SO_REUSEADDR so multiple
// nodes on the same host can bind the same port, and joins the
// multicast group via golang.org/x/net/ipv4 the way the pack's mcast
// reference does. It then starts the background read loop.
func Open(cfg Config) (*Driver, error) {
	group := cfg.Group
	if group == "" {
		group = constants.MulticastGroup
	}

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var ctrlErr error
			if err := c.Control(func(fd uintptr) {
				ctrlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			}); err != nil {
				return err
			}
			return ctrlErr
		},
	}

	pconn, err := lc.ListenPacket(context.Background(), "udp4", bindAddr(cfg.Port))
	if err != nil {
		return nil, err
	}
	conn, ok := pconn.(*net.UDPConn)
	if !ok {
		pconn.Close()
		return nil, errors.New("socket: unexpected packet conn type")
	}

	pc := ipv4.NewPacketConn(conn)
	_ = pc.SetMulticastLoopback(true)

	ifi, err := resolveInterface(cfg.InterfaceName)
	if err == nil && ifi != nil {
		_ = pc.SetMulticastInterface(ifi)
	}

	groupIP := net.ParseIP(group)
	if ifi != nil {
		if err := pc.JoinGroup(ifi, &net.UDPAddr{IP: groupIP}); err != nil && cfg.Logger != nil {
			cfg.Logger.Printf("socket: join group %s on %s failed: %v", group, ifi.Name, err)
		}
	} else if err := pc.JoinGroup(nil, &net.UDPAddr{IP: groupIP}); err != nil && cfg.Logger != nil {
		cfg.Logger.Printf("socket: join group %s on default interface failed: %v", group, err)
	}

	d := &Driver{
		conn:      conn,
		pc:        pc,
		groupAddr: &net.UDPAddr{IP: groupIP, Port: cfg.Port},
		logger:    cfg.Logger,
		recvCh:    make(chan []byte, 32),
		closeCh:   make(chan struct{}),
	}
	go d.readLoop()
	return d, nil
}

func bindAddr(port int) string {
	return ":" + strconv.Itoa(port)
}

func resolveInterface(name string) (*net.Interface, error) {
	if name != "" {
		return net.InterfaceByName(name)
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range ifaces {
		ifi := ifaces[i]
		if ifi.Flags&net.FlagUp != 0 && ifi.Flags&net.FlagMulticast != 0 && ifi.Flags&net.FlagLoopback == 0 {
			return &ifi, nil
		}
	}
	return nil, errors.New("socket: no multicast-capable interface found")
}

// Send appends b to the outbound FIFO. The bytes are copied; the caller
// may reuse its buffer immediately.
func (d *Driver) Send(b []byte) error {
	select {
	case <-d.closeCh:
		return ErrClosed
	default:
	}

	cp := make([]byte, len(b))
	copy(cp, b)

	d.sendMu.Lock()
	d.sendFIFO = append(d.sendFIFO, cp)
	d.sendMu.Unlock()
	return nil
}

// Pump drains at most one pending outbound datagram and delivers at
// most one inbound datagram to onRecv. It never blocks: a send-side
// WriteToUDP failure is logged and the datagram dropped (no retry, per
// spec); a receive is only delivered when the background read loop
// already has one buffered.
func (d *Driver) Pump(onRecv func(datagram []byte)) error {
	select {
	case <-d.closeCh:
		return ErrClosed
	default:
	}

	d.sendMu.Lock()
	var next []byte
	if len(d.sendFIFO) > 0 {
		next = d.sendFIFO[0]
		d.sendFIFO = d.sendFIFO[1:]
	}
	d.sendMu.Unlock()

	if next != nil {
		if _, err := d.conn.WriteToUDP(next, d.groupAddr); err != nil && d.logger != nil {
			d.logger.Printf("socket: send failed: %v", err)
		}
	}

	select {
	case datagram := <-d.recvCh:
		if len(datagram) > 0 {
			onRecv(datagram)
		}
	default:
	}

	return nil
}

func (d *Driver) readLoop() {
	for {
		buf := getRecvBuffer()
		n, _, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			putRecvBuffer(buf)
			select {
			case <-d.closeCh:
				return
			default:
			}
			if d.logger != nil {
				d.logger.Printf("socket: recv failed: %v", err)
			}
			continue
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		putRecvBuffer(buf)

		select {
		case d.recvCh <- datagram:
		case <-d.closeCh:
			return
		}
	}
}

// Close stops the read loop and releases the underlying socket.
func (d *Driver) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.closeCh)
		err = d.conn.Close()
	})
	return err
}
