package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"resty.dev/v3"
)

func newClient() *resty.Client {
	path := SocketPath()

	client := resty.NewWithClient(&http.Client{
		Transport: &http.Transport{
			DialContext: func(_ context.Context, _, _ string) (net.Conn, error) {
				return net.Dial("unix", path)
			},
		},
	})

	client.SetBaseURL("http://compton")
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", "compton")

	return client
}

// Status asks the running daemon for its state.
func Status() (*StatusResponse, error) {
	result := StatusResponse{}
	response, err := newClient().R().SetResult(&result).Get("/status")
	if err != nil {
		return nil, err
	}
	if response.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("status request failed: %s", response.Status())
	}
	return &result, nil
}

// Stop asks the running daemon to shut down.
func Stop() error {
	response, err := newClient().R().Post("/stop")
	if err != nil {
		return err
	}
	if response.StatusCode() != http.StatusOK {
		return fmt.Errorf("stop request failed: %s", response.Status())
	}
	return nil
}

// Screenshot fetches a PNG capture of the composited screen.
func Screenshot() ([]byte, error) {
	response, err := newClient().R().Post("/screenshot")
	if err != nil {
		return nil, err
	}
	if response.StatusCode() != http.StatusOK {
		var rsp Response
		if json.Unmarshal(response.Bytes(), &rsp) == nil && rsp.Message != "" {
			return nil, fmt.Errorf("screenshot failed: %s", rsp.Message)
		}
		return nil, fmt.Errorf("screenshot failed: %s", response.Status())
	}
	return response.Bytes(), nil
}
