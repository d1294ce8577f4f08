package postgis

import "testing"

func TestAircraftTypeFromCode(t *testing.T) {
	for code := int32(0); int(code) < len(aircraftTypeNames); code++ {
		typ, err := AircraftTypeFromCode(code)
		if err != nil {
			t.Errorf("AircraftTypeFromCode(%d) error: %v", code, err)
		}
		if int32(typ) != code {
			t.Errorf("AircraftTypeFromCode(%d) = %v", code, typ)
		}
		// Names round-trip through the database enum representation.
		if got := aircraftTypeFromName(typ.String()); got != typ {
			t.Errorf("aircraftTypeFromName(%q) = %v, want %v", typ.String(), got, typ)
		}
	}

	for _, code := range []int32{-1, int32(len(aircraftTypeNames)), 999} {
		if _, err := AircraftTypeFromCode(code); err == nil {
			t.Errorf("AircraftTypeFromCode(%d) = nil error, want error", code)
		}
	}
}

func TestOpStatusNames(t *testing.T) {
	for i := range opStatusNames {
		status := OperationalStatus(i)
		if got := opStatusFromName(status.String()); got != status {
			t.Errorf("opStatusFromName(%q) = %v, want %v", status.String(), got, status)
		}
	}
	if got := opStatusFromName("NO_SUCH_STATUS"); got != OpStatusUndeclared {
		t.Errorf("unknown status name = %v, want undeclared", got)
	}
}

func TestNodeTypeNames(t *testing.T) {
	for i := range nodeTypeNames {
		nodeType := NodeType(i)
		if got := nodeTypeFromName(nodeType.String()); got != nodeType {
			t.Errorf("nodeTypeFromName(%q) = %v, want %v", nodeType.String(), got, nodeType)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrAircraftNoAircraft, "No aircraft were provided."},
		{ErrAircraftLabel, "Invalid label provided."},
		{ErrAircraftClient, "Could not get backend client."},
		{ErrFlightSegments, "Could not segmentize path."},
		{ErrFlightAircraftType, "Invalid aircraft type provided."},
		{ErrPathNoPath, "No path was found."},
		{ErrPathInvalidTimeWindow, "Invalid time window."},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("Error() = %q, want %q", got, c.want)
		}
	}
}
