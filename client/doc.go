// Package client queries a sonar locker server over TCP.
//
// Example:
//
//	c, err := client.Connect(client.WithHost("127.0.0.1"), client.WithPort(6969))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	keys, err := c.Range("Ping", t0, t1)
//	rec, err := c.Get(keys[0])
package client
