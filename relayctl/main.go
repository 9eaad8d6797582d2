// relayctl drives the relay bank through the control-plane server:
//
//	relayctl R1 ON
//	relayctl ALL OFF
//	relayctl MASK 101000000
//	relayctl STATUS
//	relayctl            # interactive mode
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

type client struct {
	base string
	key  string
	http *http.Client
}

func main() {
	base := flag.String("server", "http://localhost:5000", "control-plane server base URL")
	key := flag.String("key", os.Getenv("HYDRO_API_KEY"), "device API key")
	flag.Parse()

	c := &client{
		base: strings.TrimRight(*base, "/"),
		key:  *key,
		http: &http.Client{Timeout: 5 * time.Second},
	}

	if flag.NArg() > 0 {
		if err := c.run(strings.Join(flag.Args(), " ")); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Relay control - interactive mode")
	fmt.Println("Commands: R1 ON/OFF, ALL ON/OFF, MASK <bits>, STATUS, quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("relay> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if l := strings.ToLower(line); l == "quit" || l == "exit" || l == "q" {
			break
		}
		if err := c.run(line); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
}

func (c *client) run(cmd string) error {
	fields := strings.Fields(strings.ToUpper(cmd))
	if len(fields) == 0 {
		return fmt.Errorf("empty command")
	}
	switch {
	case fields[0] == "STATUS":
		return c.status()
	case fields[0] == "MASK" && len(fields) == 2:
		return c.set(map[string]any{"key": c.key, "states": fields[1]})
	case fields[0] == "ALL" && len(fields) == 2:
		bit := "0"
		if fields[1] == "ON" {
			bit = "1"
		}
		mask, err := c.pending()
		if err != nil {
			return err
		}
		return c.set(map[string]any{"key": c.key, "states": strings.Repeat(bit, len(mask))})
	case strings.HasPrefix(fields[0], "R") && len(fields) == 2:
		n, err := strconv.Atoi(fields[0][1:])
		if err != nil {
			return fmt.Errorf("bad relay number %q", fields[0])
		}
		return c.set(map[string]any{"key": c.key, "relay": n, "state": fields[1]})
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (c *client) status() error {
	mask, err := c.pending()
	if err != nil {
		return err
	}
	for i := 0; i < len(mask); i++ {
		state := "OFF"
		if mask[i] == '1' {
			state = "ON"
		}
		fmt.Printf("Relay %d: %s\n", i+1, state)
	}
	return nil
}

func (c *client) pending() (string, error) {
	resp, err := c.http.Get(c.base + "/api/relay/pending")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	var body struct {
		States string `json:"states"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.States, nil
}

func (c *client) set(payload map[string]any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+"/api/relay/set", "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	var body struct {
		States string `json:"states"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	fmt.Println("States:", body.States)
	return nil
}
