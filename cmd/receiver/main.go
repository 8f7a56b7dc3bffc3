// Command receiver prints the chat lines relayed for one room.
//
//	receiver [flags] <server_address> <port> <username> <room>
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"chatrelay/internal/client"
	"chatrelay/internal/protocol"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <server_address> <port> <username> <room>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	plain := flag.Bool("plain", false, "print deliveries line by line instead of the full-screen UI")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 4 {
		usage()
		os.Exit(2)
	}
	host, username, roomName := flag.Arg(0), flag.Arg(2), flag.Arg(3)
	port, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid port %q\n", flag.Arg(1))
		os.Exit(2)
	}

	conn, err := protocol.Dial(host, port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	r := client.NewReceiver(conn)
	defer r.Close()

	if err := r.Login(username); err != nil {
		fmt.Fprintf(os.Stderr, "login: %v\n", err)
		os.Exit(1)
	}
	if err := r.Join(roomName); err != nil {
		fmt.Fprintf(os.Stderr, "join: %v\n", err)
		os.Exit(1)
	}

	if *plain {
		err = runPlain(r, os.Stdout)
	} else {
		err = runUI(r, username)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		r.Close()
		os.Exit(1)
	}
}

// runPlain prints "sender: text" per delivery until the session ends.
func runPlain(r *client.Receiver, out io.Writer) error {
	for {
		d, err := r.Next()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, d)
	}
}

func runUI(r *client.Receiver, username string) error {
	p := tea.NewProgram(newModel(r, username), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return err
	}
	return final.(model).fatal
}
