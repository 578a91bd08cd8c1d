package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardTrips() []Trip {
	return []Trip{
		{ID: "1", VehicleNumber: "KA-01-1234", RouteName: "North loop", DriverName: "Ravi", TripDate: "2026-10-19", Status: StatusPlanned},
		{ID: "2", VehicleNumber: "KA-05-9876", RouteName: "Market road", DriverName: "Suresh", TripDate: "2026-10-19T00:00:00Z", Status: StatusInProgress},
		{ID: "3", VehicleNumber: "KA-01-5555", RouteName: "North loop", DriverName: "Anil", TripDate: "2026-10-18", Status: StatusCompleted},
		{ID: "4", VehicleNumber: "TN-09-0001", RouteName: "Harbour", DriverName: "Ravi", TripDate: "2026-10-17", Status: StatusCancelled},
	}
}

func ids(b Board) []string {
	out := make([]string, 0, len(b.Rows))
	for _, row := range b.Rows {
		out = append(out, row.Trip.ID)
	}
	return out
}

func TestBuildBoardCountsIgnoreFilter(t *testing.T) {
	b := BuildBoard(boardTrips(), Filter{Status: StatusPlanned})
	assert.Equal(t, 4, b.Total)
	assert.Equal(t, map[Status]int{StatusPlanned: 1, StatusInProgress: 1, StatusCompleted: 1, StatusCancelled: 1}, b.Counts)
	assert.Equal(t, []string{"1"}, ids(b))
}

func TestBuildBoardSearchMatchesVehicleRouteAndDriver(t *testing.T) {
	assert.Equal(t, []string{"1", "3"}, ids(BuildBoard(boardTrips(), Filter{Search: "ka-01"})))
	assert.Equal(t, []string{"1", "3"}, ids(BuildBoard(boardTrips(), Filter{Search: "NORTH"})))
	assert.Equal(t, []string{"1", "4"}, ids(BuildBoard(boardTrips(), Filter{Search: "ravi"})))
	assert.Empty(t, ids(BuildBoard(boardTrips(), Filter{Search: "nobody"})))
}

func TestBuildBoardFiltersCombineWithAnd(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, ids(BuildBoard(boardTrips(), Filter{Date: "2026-10-19"})))
	assert.Equal(t, []string{"1"}, ids(BuildBoard(boardTrips(), Filter{Date: "2026-10-19", Search: "ravi"})))
	assert.Empty(t, ids(BuildBoard(boardTrips(), Filter{Date: "2026-10-19", Search: "ravi", Status: StatusInProgress})))
}

func TestBuildBoardRowsCarryActions(t *testing.T) {
	b := BuildBoard(boardTrips(), Filter{})
	require.Len(t, b.Rows, 4)
	for _, row := range b.Rows {
		assert.Equal(t, row.Trip.Status.Actions(), row.Actions)
	}
}

func TestBuildBoardEmpty(t *testing.T) {
	b := BuildBoard(nil, Filter{})
	assert.NotNil(t, b.Rows)
	assert.Equal(t, 0, b.Counts[StatusPlanned])
}
