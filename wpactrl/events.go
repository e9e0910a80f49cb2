package wpactrl

import (
	"context"

	"github.com/openwfd/wfd/wfderr"
)

// WifiDisplaySupported asks the supplicant whether it was built with
// Wi-Fi Display support, via "GET wifi_display". Per Design Note
// "GET wifi_display empty/non-1 reply", any reply other than exactly
// "1\n" is treated as unsupported, and the channel is torn down before
// returning: a supplicant that can't do WFD has nothing further this
// module can use it for, so there is no reason to keep the sockets
// open on a negative answer.
func (c *Channel) WifiDisplaySupported(ctx context.Context) (bool, error) {
	if !c.IsOpen() {
		return false, wfderr.New(wfderr.NotOpen, "wpactrl: channel not open")
	}

	reply, err := c.Request("GET wifi_display")
	if err != nil {
		c.Close()
		return false, err
	}

	if reply != "1\n" {
		c.Close()
		return false, wfderr.New(wfderr.Unsupported, "wpactrl: wifi_display not supported")
	}

	return true, nil
}
