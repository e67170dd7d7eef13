package ranking_test

import (
	"testing"

	"github.com/okian/bolao/internal/domain/ranking"
	"github.com/okian/bolao/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

func result(card, owner string, total, exact int) ranking.CardResult {
	return ranking.CardResult{
		CardID:  card,
		OwnerID: owner,
		Score:   scoring.RoundScore{TotalPoints: total, ExactHits: exact},
	}
}

func TestRank(t *testing.T) {
	convey.Convey("Given scored cards", t, func() {
		in := []ranking.CardResult{
			result("c3", "carla", 10, 1),
			result("c1", "ana", 14, 2),
			result("c2", "bia", 10, 1),
			result("c4", "duda", 10, 0),
		}

		out := ranking.Rank(in)

		convey.Convey("Then cards are ordered by points then exact hits", func() {
			convey.So(len(out), convey.ShouldEqual, 4)
			convey.So(out[0].CardID, convey.ShouldEqual, "c1")
			convey.So(out[3].CardID, convey.ShouldEqual, "c4")
		})

		convey.Convey("And full ties share a rank ordered by owner", func() {
			convey.So(out[1].OwnerID, convey.ShouldEqual, "bia")
			convey.So(out[2].OwnerID, convey.ShouldEqual, "carla")
			convey.So(out[1].Rank, convey.ShouldEqual, 2)
			convey.So(out[2].Rank, convey.ShouldEqual, 2)
		})

		convey.Convey("And the rank after a tie skips", func() {
			convey.So(out[0].Rank, convey.ShouldEqual, 1)
			convey.So(out[3].Rank, convey.ShouldEqual, 4)
		})

		convey.Convey("And the input is left untouched", func() {
			convey.So(in[0].CardID, convey.ShouldEqual, "c3")
		})
	})

	convey.Convey("Given no cards", t, func() {
		out := ranking.Rank(nil)
		convey.So(out, convey.ShouldNotBeNil)
		convey.So(out, convey.ShouldBeEmpty)
	})
}
