package i3

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/swipecli/swipecli/utils"
)

const DefaultTimeout = 5 * time.Second

var ErrClosed = errors.New("i3 client is closed")

// CommandOutcome is the result of one command in a RUN_COMMAND reply.
// i3 splits the payload on ';' and ',' and reports each part separately.
type CommandOutcome struct {
	Success    bool   `json:"success"`
	ParseError bool   `json:"parse_error,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Version is the GET_VERSION reply
type Version struct {
	Major                int    `json:"major"`
	Minor                int    `json:"minor"`
	Patch                int    `json:"patch"`
	HumanReadable        string `json:"human_readable"`
	LoadedConfigFileName string `json:"loaded_config_file_name"`
}

// Client talks to the window manager over its IPC socket. The connection is
// opened on first use and re-opened after a transport failure.
type Client struct {
	path    string
	timeout time.Duration

	// discover is set when the path was not given and is looked up again
	// after a failed dial
	discover bool

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// NewClient returns a client for the socket at path. An empty path is
// resolved with DiscoverSocketPath when the client first connects.
func NewClient(path string) *Client {
	return &Client{
		path:     path,
		timeout:  DefaultTimeout,
		discover: path == "",
	}
}

// SetTimeout changes the per-request I/O deadline
func (c *Client) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// Path returns the socket path, empty until discovery succeeded
func (c *Client) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Connect opens the connection if it is not already open
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.conn != nil {
		return nil
	}

	fresh := false
	if c.path == "" {
		path, err := DiscoverSocketPath()
		if err != nil {
			return err
		}
		c.path = path
		fresh = true
	}

	path := c.path
	conn, err := net.DialTimeout("unix", path, c.timeout)
	if err != nil {
		if c.discover {
			// a restarted window manager listens on a new socket
			c.path = ""
			if !fresh {
				utils.Verbose("i3 IPC socket %s is gone, looking for a new one", path)
				return c.connectLocked()
			}
		}
		return errors.Wrapf(err, "failed to connect to %s", path)
	}

	utils.Verbose("Connected to i3 IPC socket %s", c.path)
	c.conn = conn
	return nil
}

// RunCommand sends a RUN_COMMAND request. A non-nil error means the request
// never got a well-formed reply; rejections are reported in the outcomes.
func (c *Client) RunCommand(command string) ([]CommandOutcome, error) {
	payload, err := c.roundTrip(MessageRunCommand, []byte(command))
	if err != nil {
		return nil, err
	}

	var outcomes []CommandOutcome
	if err := json.Unmarshal(payload, &outcomes); err != nil {
		return nil, errors.Wrap(err, "failed to decode RUN_COMMAND reply")
	}

	return outcomes, nil
}

// Version sends a GET_VERSION request
func (c *Client) Version() (*Version, error) {
	payload, err := c.roundTrip(MessageGetVersion, nil)
	if err != nil {
		return nil, err
	}

	var version Version
	if err := json.Unmarshal(payload, &version); err != nil {
		return nil, errors.Wrap(err, "failed to decode GET_VERSION reply")
	}

	return &version, nil
}

func (c *Client) roundTrip(t MessageType, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(); err != nil {
		return nil, err
	}

	reply, err := c.exchange(t, payload)
	if err != nil {
		// the stream position is unknown now, start over on the next request
		_ = c.conn.Close()
		c.conn = nil
		return nil, errors.Wrapf(err, "%s request failed", t)
	}

	return reply, nil
}

func (c *Client) exchange(t MessageType, payload []byte) ([]byte, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, errors.Wrap(err, "failed to set deadline")
	}

	if _, err := c.conn.Write(encodeMessage(t, payload)); err != nil {
		return nil, errors.Wrap(err, "failed to write message")
	}

	replyType, reply, err := readMessage(c.conn)
	if err != nil {
		return nil, err
	}

	if replyType != t {
		return nil, errors.Errorf("unexpected reply type %d", uint32(replyType))
	}

	utils.Trace("i3 %s reply: %s", t, reply)
	return reply, nil
}

// Close closes the connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	return err
}
