package redis

import (
	"fmt"

	"github.com/mcoot/partygame/internal/model"
)

// Key prefix for all party data
const keyPrefix = "partygame"

// partyKey returns the Redis key for a Party
func partyKey(id model.PartyID) string {
	return fmt.Sprintf("%s:party:%s", keyPrefix, id)
}

// codeIndexKey returns the Redis key claiming a party code (code -> party_id)
func codeIndexKey(code model.PartyCode) string {
	return fmt.Sprintf("%s:idx:code:%s", keyPrefix, code)
}

// partiesIndexKey returns the Redis key for the SET of all party ids
func partiesIndexKey() string {
	return fmt.Sprintf("%s:idx:parties", keyPrefix)
}

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> user_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// historyKey returns the Redis key for a user's game history LIST (newest at head)
func historyKey(userID model.UserID) string {
	return fmt.Sprintf("%s:history:%s", keyPrefix, userID)
}
