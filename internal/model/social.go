package model

import "time"

// Like records that a user liked a track. (TrackID, UserID) is unique.
type Like struct {
	ID      int64
	TrackID int64
	UserID  int64
}

// Follow is a directed edge: Follower subscribes to Following.
// (Follower, Following) is unique; self-edges are refused by the service.
type Follow struct {
	ID        int64
	Follower  UserBrief
	Following UserBrief
	CreatedAt time.Time
}
