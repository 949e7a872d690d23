package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"sync"

	"github.com/gambitgo/gambit/internal/engine"
	. "github.com/gambitgo/gambit/internal/helpers"
	"github.com/gambitgo/gambit/internal/play"
	"github.com/gambitgo/gambit/internal/rules"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

type NewGameFromWeb struct {
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
	EngineSide string `json:"engineSide"`
	Fen        string `json:"fen"`
}

type MessageFromWeb struct {
	NewGame   *NewGameFromWeb `json:"newGame"`
	Join      *string         `json:"join"`
	Move      *string         `json:"move"`
	Selection *string         `json:"selection"`
	Reset     *string         `json:"reset"`
}

func (u MessageFromWeb) String() string {
	if u.NewGame != nil {
		return fmt.Sprint("MessageFromWeb NewGame: ", u.NewGame.Mode)
	}
	if u.Join != nil {
		return fmt.Sprint("MessageFromWeb Join: ", *u.Join)
	}
	if u.Move != nil {
		return fmt.Sprint("MessageFromWeb Move: ", *u.Move)
	}
	if u.Selection != nil {
		return fmt.Sprint("MessageFromWeb Selection: ", *u.Selection)
	}
	if u.Reset != nil {
		return fmt.Sprint("MessageFromWeb Reset: ", *u.Reset)
	}
	return "MessageFromWeb unknown"
}

type UpdateToWeb struct {
	FenString     string   `json:"fenString"`
	Player        string   `json:"player"`
	LastMove      string   `json:"lastMove"`
	Selection     string   `json:"selection"`
	PossibleMoves []string `json:"possibleMoves"`
	Check         bool     `json:"check"`
	Checkmate     bool     `json:"checkmate"`
	Draw          bool     `json:"draw"`
	GameOver      bool     `json:"gameOver"`
	Thinking      bool     `json:"thinking"`
	Room          string   `json:"room,omitempty"`
	Seat          string   `json:"seat,omitempty"`
}

func updateFromStatus(status play.Status) UpdateToWeb {
	return UpdateToWeb{
		FenString: status.Fen,
		Player:    status.Turn.String(),
		LastMove:  status.LastMoveSAN,
		Check:     status.Check,
		Checkmate: status.Checkmate,
		Draw:      status.Draw,
		GameOver:  status.GameOver,
		Thinking:  status.Thinking,
	}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, fmt.Sprint(r))
			fmt.Fprintln(os.Stderr, string(debug.Stack()))
		}
	}()

	sharedEngine := engine.New(&DefaultLogger)
	rooms := play.NewRooms(&DefaultLogger, sharedEngine)

	var upgrader = websocket.Upgrader{}

	var ws = func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			panic(err)
		}
		defer c.Close()

		var writeMu sync.Mutex
		var sendUpdate = func(update UpdateToWeb) {
			bytes, err := json.Marshal(update)
			if err != nil {
				log.Println("update: json marshal: ", err)
				return
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := c.WriteMessage(websocket.TextMessage, bytes); err != nil {
				log.Println("websocket: ", err)
			}
		}

		logger := &FuncLogger{Callback: func(message string) {
			log.Print("session: ", message)
		}}

		session, sessionErr := play.NewSession(logger, sharedEngine)
		if !IsNil(sessionErr) {
			log.Println("session: ", sessionErr)
			return
		}

		var room *play.Room
		var seat rules.Side
		var sub *play.Subscriber
		var leaveRoom = func() {
			if room == nil {
				return
			}
			room.Unsubscribe(sub)
			room.ReleaseSeat(seat)
			room, sub = nil, nil
		}
		defer leaveRoom()

		var currentStatus = func() play.Status {
			if room != nil {
				return room.Status()
			}
			return session.Status()
		}

		var engineReply = func() {
			move, err := session.MaybeEngineMove(context.Background())
			if !IsNil(err) {
				logger.Println("engine: ", err)
				return
			}
			if move.HasValue() {
				sendUpdate(updateFromStatus(session.Status()))
			}
		}

		var handleMessageFromWeb = func(bytes []byte) {
			var message MessageFromWeb
			if err := json.Unmarshal(bytes, &message); err != nil {
				logger.Println("handleMessageFromWeb: json unmarshal: ", err)
				return
			}
			logger.Println("received", message)

			update := updateFromStatus(currentStatus())
			shouldUpdate := false

			if message.NewGame != nil {
				mode, err := play.ModeFromString(message.NewGame.Mode)
				if !IsNil(err) {
					logger.Println("new game: ", err)
					return
				}
				difficulty, err := engine.DifficultyFromString(message.NewGame.Difficulty)
				if !IsNil(err) {
					difficulty = engine.Medium
				}
				engineSide := rules.Black
				if message.NewGame.EngineSide != "" {
					engineSide, err = rules.SideFromCode(message.NewGame.EngineSide)
					if !IsNil(err) {
						logger.Println("new game: ", err)
						return
					}
				}
				leaveRoom()
				if err := session.Configure(mode, difficulty, engineSide, message.NewGame.Fen); !IsNil(err) {
					logger.Println("new game: ", err)
					return
				}
				update = updateFromStatus(session.Status())
				shouldUpdate = true
				go engineReply()
			} else if message.Join != nil {
				leaveRoom()
				joined, joinedSeat, err := rooms.Join(*message.Join)
				if !IsNil(err) {
					logger.Println("join: ", err)
					return
				}
				room, seat = joined, joinedSeat
				sub = room.Subscribe()
				go func(sub *play.Subscriber, roomCode string, seatCode string) {
					for status := range sub.C {
						roomUpdate := updateFromStatus(status)
						roomUpdate.Room = roomCode
						roomUpdate.Seat = seatCode
						sendUpdate(roomUpdate)
					}
				}(sub, joined.Code, joinedSeat.Code())
				update = updateFromStatus(room.Status())
				update.Room = room.Code
				update.Seat = seat.Code()
				shouldUpdate = true
			} else if message.Move != nil {
				move, err := rules.MoveFromUCI(*message.Move)
				if !IsNil(err) {
					logger.Println("move: ", err)
					return
				}
				var status play.Status
				if room != nil {
					status, err = room.Play(seat, move)
				} else {
					status, err = session.PlayMove(move)
				}
				if !IsNil(err) {
					logger.Println("move: ", *message.Move, err)
					return
				}
				update = updateFromStatus(status)
				shouldUpdate = true
				if room == nil {
					go engineReply()
				}
			} else if message.Selection != nil {
				if *message.Selection != "" {
					update.Selection = *message.Selection
					moves := session.LegalMovesFrom(*message.Selection)
					update.PossibleMoves = MapSlice(moves, func(m rules.Move) string {
						return m.To
					})
				}
				shouldUpdate = true
			} else if message.Reset != nil {
				var err Error
				if room != nil {
					err = room.Reset(*message.Reset)
				} else {
					err = session.Reset(*message.Reset)
				}
				if !IsNil(err) {
					logger.Println("reset: ", err)
					return
				}
				update = updateFromStatus(currentStatus())
				shouldUpdate = true
			}

			if shouldUpdate {
				sendUpdate(update)
			}
		}

		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				logger.Printf("closing: %v", err)
				break
			}
			handleMessageFromWeb(message)
		}
	}

	port := 8002
	args := os.Args[1:]
	for _, arg := range args {
		if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil {
			port = int(parsed)
		}
	}

	log.Println("serving at", port)

	router := mux.NewRouter()
	router.HandleFunc("/ws", ws)
	err := http.ListenAndServe(fmt.Sprintf(":%v", port), router)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
