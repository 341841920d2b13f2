package utils

import (
	"log"
	"time"
)

func TimeNowKST() time.Time {
	return time.Now().In(GetKSTTimeLocation())
}

func GetKSTTimeLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return loc
}

// PrettyDate renders t in KST in a human readable form.
func PrettyDate(t time.Time) string {
	return t.In(GetKSTTimeLocation()).Format("Mon, 02 Jan 2006 15:04")
}
