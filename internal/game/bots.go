package game

import "fmt"

var botNames = []string{"Alex", "Max", "Nika", "Leo", "Mira", "Tim", "Eva", "Ron", "Kira", "Sam"}

// NewBot создает синтетического участника. id у ботов отрицательные,
// чтобы не пересекаться с пользователями.
func NewBot(id int64) Participant {
	if id > 0 {
		id = -id
	}
	name := fmt.Sprintf("%s (bot)", botNames[RandIntn(len(botNames))])
	return Participant{ID: id, Name: name, IsBot: true}
}
