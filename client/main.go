// Interactive test client. Speaks the framed TCP protocol and exposes one
// command per request type, so a full game can be driven by hand from a few
// terminals.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/moonvale/werewolf-server/network"
)

var commands = map[string]uint16{
	"register": network.MsgRegisterReq,
	"login":    network.MsgLoginReq,
	"logout":   network.MsgLogoutReq,
	"rooms":    network.MsgGetRoomsReq,
	"create":   network.MsgCreateRoomReq,
	"join":     network.MsgJoinRoomReq,
	"leave":    network.MsgLeaveRoomReq,
	"info":     network.MsgGetRoomInfoReq,
	"start":    network.MsgStartGameReq,
	"done":     network.MsgRoleCardDoneReq,
	"seer":     network.MsgSeerCheckReq,
	"guard":    network.MsgGuardProtectReq,
	"kill":     network.MsgWolfKillReq,
	"vote":     network.MsgVoteReq,
	"chat":     network.MsgChatReq,
}

func usage() {
	log.Println("commands:")
	log.Println("  register <user> <pass> | login <user> <pass> | logout")
	log.Println("  rooms | create <name> | join <id> | leave | info <id>")
	log.Println("  start <id> | done <id>")
	log.Println("  seer <id> [target] | guard <id> [target] | kill <id> <target> | vote <id> [target]")
	log.Println("  chat <id> <message...> | quit")
}

func send(conn network.Connection, msgType uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Println("marshal error:", err)
		return
	}
	if err := conn.Send(msgType, data); err != nil {
		log.Println("write error:", err)
	}
}

func buildPayload(cmd string, args []string) (interface{}, bool) {
	switch cmd {
	case "register", "login":
		if len(args) < 2 {
			return nil, false
		}
		return map[string]string{"username": args[0], "password": args[1]}, true
	case "logout", "rooms", "leave":
		return map[string]string{}, true
	case "create":
		if len(args) < 1 {
			return nil, false
		}
		return map[string]string{"room_name": strings.Join(args, " ")}, true
	case "join", "info", "start", "done":
		if len(args) < 1 {
			return nil, false
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, false
		}
		return map[string]int{"room_id": id}, true
	case "seer", "guard", "kill", "vote":
		if len(args) < 1 {
			return nil, false
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, false
		}
		target := ""
		if len(args) > 1 {
			target = args[1]
		}
		return map[string]interface{}{"room_id": id, "target_username": target}, true
	case "chat":
		if len(args) < 2 {
			return nil, false
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, false
		}
		return map[string]interface{}{"room_id": id, "message": strings.Join(args[1:], " ")}, true
	}
	return nil, false
}

func main() {
	addr := flag.String("addr", "localhost:5000", "server address")
	flag.Parse()

	raw, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	conn := network.NewTCPConnection(raw)
	defer conn.Close()
	log.Printf("Connected to %s", *addr)

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			packet, err := conn.ReadPacket()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if packet.Type == network.MsgPing {
				send(conn, network.MsgPong, map[string]string{"type": "pong"})
				continue
			}
			log.Printf("<- RECV (type %d): %s", packet.Type, packet.Data)
		}
	}()

	usage()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-done:
			return
		default:
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		if cmd == "quit" {
			return
		}
		msgType, ok := commands[cmd]
		if !ok {
			usage()
			continue
		}
		payload, ok := buildPayload(cmd, args)
		if !ok {
			usage()
			continue
		}
		send(conn, msgType, payload)
	}
}
