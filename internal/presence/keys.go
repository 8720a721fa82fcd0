package presence

const keyPrefix = "presence:"

func connsKey(id Identity) string {
	return keyPrefix + "conns:" + string(id)
}

func rosterKey(room RoomKey) string {
	return keyPrefix + "room:" + string(room) + ":members"
}

func roomsKey(id Identity) string {
	return keyPrefix + "identity:" + string(id) + ":rooms"
}

func roomConnsKey(room RoomKey, id Identity) string {
	return keyPrefix + "room:" + string(room) + ":conns:" + string(id)
}

func instanceKey(instance string) string {
	return keyPrefix + "instance:" + instance
}
