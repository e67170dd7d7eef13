package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/bolao/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStanding(t *testing.T) {
	Convey("Given a standing", t, func() {
		s := types.Standing{Rank: 1, CardID: "c1", OwnerID: "ana", TotalPoints: 14, ExactHits: 2}

		Convey("When encoding it to JSON", func() {
			b, err := json.Marshal(s)

			Convey("Then the API field names are used", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `{"rank":1,"cardId":"c1","ownerId":"ana","totalPoints":14,"exactHits":2,"pending":0}`)
			})
		})
	})
}
