// Command sdw-cli is an interactive client for sdw-server.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/0xRadioAc7iv/go-sonarlocker/client"
	"github.com/0xRadioAc7iv/go-sonarlocker/internal"
	"github.com/0xRadioAc7iv/go-sonarlocker/internal/utils"
)

func main() {
	host := flag.String("host", internal.DEFAULT_HOST, "Locker server host")
	port := flag.Int("port", internal.DEFAULT_PORT, "Locker server port")
	flag.Parse()

	c, err := client.Connect(client.WithHost(*host), client.WithPort(*port))
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	fmt.Printf("Connected to %v:%d\n", *host, *port)
	fmt.Println("Type commands. 'help' for information or 'exit' to quit.")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("input error:", err)
			return
		}

		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if line == "exit" {
			return
		}

		cmd, key, value, err := utils.SplitStringIntoCommandAndArguments(line)
		if err != nil {
			fmt.Println("parse error:", err)
			continue
		}

		resp, err := c.Execute(cmd, key, value)
		var serr *client.ServerError
		switch {
		case errors.Is(err, client.ErrNotFound):
			fmt.Println("nil")
		case errors.As(err, &serr):
			fmt.Println("error:", serr.Msg)
		case err != nil:
			log.Fatal(err)
		default:
			fmt.Println(resp)
		}
	}
}
