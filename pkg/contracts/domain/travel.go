package domain

import (
	"encoding/json"
	"fmt"
)

// RecordType discriminates the four kinds of travel bookings.
type RecordType string

const (
	RecordFlight RecordType = "flight"
	RecordHotel  RecordType = "hotel"
	RecordTrain  RecordType = "train"
	RecordCar    RecordType = "car"
)

// FlightDetails holds the fields specific to a flight booking.
type FlightDetails struct {
	Passenger  string  `json:"passenger"`
	FlightNo   string  `json:"flightNo"`
	DepartTime string  `json:"departTime"`
	FromCity   string  `json:"fromCity"`
	ToCity     string  `json:"toCity"`
	Price      float64 `json:"price"`
	CabinClass string  `json:"cabinClass"`
	Airline    string  `json:"airline"`
}

// HotelDetails holds the fields specific to a hotel stay.
type HotelDetails struct {
	Employee     string  `json:"employee"`
	CheckInTime  string  `json:"checkInTime"`
	CheckOutTime string  `json:"checkOutTime"`
	City         string  `json:"city"`
	HotelName    string  `json:"hotelName"`
	Price        float64 `json:"price"`
}

// TrainDetails holds the fields specific to a train ticket.
type TrainDetails struct {
	Employee   string  `json:"employee"`
	TrainNo    string  `json:"trainNo"`
	DepartTime string  `json:"departTime"`
	FromCity   string  `json:"fromCity"`
	ToCity     string  `json:"toCity"`
	Price      float64 `json:"price"`
}

// CarDetails holds the fields specific to a car ride.
type CarDetails struct {
	Passenger   string  `json:"passenger"`
	PickupTime  string  `json:"pickupTime"`
	DropoffTime string  `json:"dropoffTime"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Distance    float64 `json:"distance"`
	TotalAmount float64 `json:"totalAmount"`
}

// TravelRecord is a closed tagged union over the four booking kinds. It is
// created once by a vendor adapter and treated as immutable afterwards.
// Exactly one of the detail pointers matching Type is set; records with an
// unrecognized Type carry no details and contribute zero to amount totals.
//
// The wire format is flat: common fields and the active variant's fields are
// merged into a single JSON object, matching the persisted shard contract.
type TravelRecord struct {
	Source     string
	Type       RecordType
	DeptLevel1 string
	DeptLevel2 string

	Flight *FlightDetails
	Hotel  *HotelDetails
	Train  *TrainDetails
	Car    *CarDetails

	// Flagged marks records whose numeric fields failed strict parsing and
	// were recorded with defaults. They still count in totals.
	Flagged       bool
	FlaggedFields []string
}

// Amount returns the monetary value of the record. Flights, hotels and
// trains carry a price; cars carry a total amount. Unrecognized types
// contribute zero.
func (r *TravelRecord) Amount() float64 {
	switch r.Type {
	case RecordFlight:
		if r.Flight != nil {
			return r.Flight.Price
		}
	case RecordHotel:
		if r.Hotel != nil {
			return r.Hotel.Price
		}
	case RecordTrain:
		if r.Train != nil {
			return r.Train.Price
		}
	case RecordCar:
		if r.Car != nil {
			return r.Car.TotalAmount
		}
	}
	return 0
}

// DateField returns the timestamp string used for month attribution:
// departure time for flights and trains, check-in for hotels, pickup for
// cars. Empty for unrecognized types.
func (r *TravelRecord) DateField() string {
	switch r.Type {
	case RecordFlight:
		if r.Flight != nil {
			return r.Flight.DepartTime
		}
	case RecordHotel:
		if r.Hotel != nil {
			return r.Hotel.CheckInTime
		}
	case RecordTrain:
		if r.Train != nil {
			return r.Train.DepartTime
		}
	case RecordCar:
		if r.Car != nil {
			return r.Car.PickupTime
		}
	}
	return ""
}

// EmployeeName returns the traveler's name: the passenger for flights and
// cars, the employee field otherwise.
func (r *TravelRecord) EmployeeName() string {
	switch r.Type {
	case RecordFlight:
		if r.Flight != nil {
			return r.Flight.Passenger
		}
	case RecordCar:
		if r.Car != nil {
			return r.Car.Passenger
		}
	case RecordHotel:
		if r.Hotel != nil {
			return r.Hotel.Employee
		}
	case RecordTrain:
		if r.Train != nil {
			return r.Train.Employee
		}
	}
	return ""
}

// travelRecordWire is the flat superset of all record fields used for JSON
// round-tripping. Numeric fields are pointers so absent and zero values can
// be told apart when re-marshaling variants.
type travelRecordWire struct {
	Source     string     `json:"source"`
	Type       RecordType `json:"type"`
	DeptLevel1 string     `json:"deptLevel1"`
	DeptLevel2 string     `json:"deptLevel2"`

	Passenger    string   `json:"passenger,omitempty"`
	Employee     string   `json:"employee,omitempty"`
	FlightNo     string   `json:"flightNo,omitempty"`
	TrainNo      string   `json:"trainNo,omitempty"`
	DepartTime   string   `json:"departTime,omitempty"`
	CheckInTime  string   `json:"checkInTime,omitempty"`
	CheckOutTime string   `json:"checkOutTime,omitempty"`
	PickupTime   string   `json:"pickupTime,omitempty"`
	DropoffTime  string   `json:"dropoffTime,omitempty"`
	FromCity     string   `json:"fromCity,omitempty"`
	ToCity       string   `json:"toCity,omitempty"`
	City         string   `json:"city,omitempty"`
	HotelName    string   `json:"hotelName,omitempty"`
	Origin       string   `json:"origin,omitempty"`
	Destination  string   `json:"destination,omitempty"`
	CabinClass   string   `json:"cabinClass,omitempty"`
	Airline      string   `json:"airline,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	TotalAmount  *float64 `json:"totalAmount,omitempty"`

	Flagged       bool     `json:"flagged,omitempty"`
	FlaggedFields []string `json:"flaggedFields,omitempty"`
}

// MarshalJSON flattens the active variant into a single object.
func (r TravelRecord) MarshalJSON() ([]byte, error) {
	w := travelRecordWire{
		Source:        r.Source,
		Type:          r.Type,
		DeptLevel1:    r.DeptLevel1,
		DeptLevel2:    r.DeptLevel2,
		Flagged:       r.Flagged,
		FlaggedFields: r.FlaggedFields,
	}

	switch r.Type {
	case RecordFlight:
		if r.Flight == nil {
			return nil, fmt.Errorf("flight record without flight details")
		}
		f := r.Flight
		w.Passenger = f.Passenger
		w.FlightNo = f.FlightNo
		w.DepartTime = f.DepartTime
		w.FromCity = f.FromCity
		w.ToCity = f.ToCity
		w.CabinClass = f.CabinClass
		w.Airline = f.Airline
		w.Price = &f.Price
	case RecordHotel:
		if r.Hotel == nil {
			return nil, fmt.Errorf("hotel record without hotel details")
		}
		h := r.Hotel
		w.Employee = h.Employee
		w.CheckInTime = h.CheckInTime
		w.CheckOutTime = h.CheckOutTime
		w.City = h.City
		w.HotelName = h.HotelName
		w.Price = &h.Price
	case RecordTrain:
		if r.Train == nil {
			return nil, fmt.Errorf("train record without train details")
		}
		t := r.Train
		w.Employee = t.Employee
		w.TrainNo = t.TrainNo
		w.DepartTime = t.DepartTime
		w.FromCity = t.FromCity
		w.ToCity = t.ToCity
		w.Price = &t.Price
	case RecordCar:
		if r.Car == nil {
			return nil, fmt.Errorf("car record without car details")
		}
		c := r.Car
		w.Passenger = c.Passenger
		w.PickupTime = c.PickupTime
		w.DropoffTime = c.DropoffTime
		w.Origin = c.Origin
		w.Destination = c.Destination
		w.Distance = &c.Distance
		w.TotalAmount = &c.TotalAmount
	}

	return json.Marshal(w)
}

// UnmarshalJSON reads the flat wire object and rebuilds the tagged union.
// Unknown record types keep only the common fields.
func (r *TravelRecord) UnmarshalJSON(data []byte) error {
	var w travelRecordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = TravelRecord{
		Source:        w.Source,
		Type:          w.Type,
		DeptLevel1:    w.DeptLevel1,
		DeptLevel2:    w.DeptLevel2,
		Flagged:       w.Flagged,
		FlaggedFields: w.FlaggedFields,
	}

	deref := func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	}

	switch w.Type {
	case RecordFlight:
		r.Flight = &FlightDetails{
			Passenger:  w.Passenger,
			FlightNo:   w.FlightNo,
			DepartTime: w.DepartTime,
			FromCity:   w.FromCity,
			ToCity:     w.ToCity,
			Price:      deref(w.Price),
			CabinClass: w.CabinClass,
			Airline:    w.Airline,
		}
	case RecordHotel:
		r.Hotel = &HotelDetails{
			Employee:     w.Employee,
			CheckInTime:  w.CheckInTime,
			CheckOutTime: w.CheckOutTime,
			City:         w.City,
			HotelName:    w.HotelName,
			Price:        deref(w.Price),
		}
	case RecordTrain:
		r.Train = &TrainDetails{
			Employee:   w.Employee,
			TrainNo:    w.TrainNo,
			DepartTime: w.DepartTime,
			FromCity:   w.FromCity,
			ToCity:     w.ToCity,
			Price:      deref(w.Price),
		}
	case RecordCar:
		r.Car = &CarDetails{
			Passenger:   w.Passenger,
			PickupTime:  w.PickupTime,
			DropoffTime: w.DropoffTime,
			Origin:      w.Origin,
			Destination: w.Destination,
			Distance:    deref(w.Distance),
			TotalAmount: deref(w.TotalAmount),
		}
	}

	return nil
}
