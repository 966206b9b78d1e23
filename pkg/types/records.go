package types

import "time"

// Team is a group of employees working together.
type Team struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Department  string    `json:"department,omitempty"`
	LeadName    string    `json:"lead_name,omitempty"`
	MemberCount int       `json:"member_count,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// Project is a unit of planned work owned by a team.
type Project struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	TeamID      string    `json:"team_id,omitempty"`
	Owner       string    `json:"owner,omitempty"`
	Status      string    `json:"status,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Progress    int       `json:"progress,omitempty"`
	Budget      float64   `json:"budget,omitempty"`
	StartDate   string    `json:"start_date,omitempty"`
	DueDate     string    `json:"due_date,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// MeetingRoom is a bookable room.
type MeetingRoom struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Location  string    `json:"location,omitempty"`
	Floor     int       `json:"floor,omitempty"`
	Capacity  int       `json:"capacity,omitempty"`
	Amenities string    `json:"amenities,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// RoomBooking reserves a meeting room for a time window.
type RoomBooking struct {
	ID                 string    `json:"id,omitempty"`
	RoomID             string    `json:"room_id,omitempty"`
	Title              string    `json:"title,omitempty"`
	Organizer          string    `json:"organizer,omitempty"`
	Attendees          int       `json:"attendees,omitempty"`
	StartTime          time.Time `json:"start_time,omitzero"`
	EndTime            time.Time `json:"end_time,omitzero"`
	Status             string    `json:"status,omitempty"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
	CancelledAt        time.Time `json:"cancelled_at,omitzero"`
	CreatedAt          time.Time `json:"created_at,omitzero"`
	UpdatedAt          time.Time `json:"updated_at,omitzero"`
}

// Equipment is a physical asset that employees can borrow.
type Equipment struct {
	ID              string    `json:"id,omitempty"`
	Name            string    `json:"name,omitempty"`
	Category        string    `json:"category,omitempty"`
	SerialNumber    string    `json:"serial_number,omitempty"`
	Location        string    `json:"location,omitempty"`
	Status          string    `json:"status,omitempty"`
	Condition       string    `json:"condition,omitempty"`
	LastSafetyCheck time.Time `json:"last_safety_check,omitzero"`
	NextSafetyCheck time.Time `json:"next_safety_check,omitzero"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// EquipmentBooking records an employee borrowing a piece of equipment.
type EquipmentBooking struct {
	ID              string    `json:"id,omitempty"`
	EquipmentID     string    `json:"equipment_id,omitempty"`
	EmployeeName    string    `json:"employee_name,omitempty"`
	Purpose         string    `json:"purpose,omitempty"`
	StartDate       string    `json:"start_date,omitempty"`
	EndDate         string    `json:"end_date,omitempty"`
	Status          string    `json:"status,omitempty"`
	ReturnCondition string    `json:"return_condition,omitempty"`
	ReturnNotes     string    `json:"return_notes,omitempty"`
	ReturnedAt      time.Time `json:"returned_at,omitzero"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// SafetyCheck is a scheduled or completed inspection of a piece of equipment.
type SafetyCheck struct {
	ID           string    `json:"id,omitempty"`
	EquipmentID  string    `json:"equipment_id,omitempty"`
	Inspector    string    `json:"inspector,omitempty"`
	ScheduledFor string    `json:"scheduled_for,omitempty"`
	Status       string    `json:"status,omitempty"`
	Result       string    `json:"result,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CompletedAt  time.Time `json:"completed_at,omitzero"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
}

// TravelRequest is a business travel request awaiting or past review.
type TravelRequest struct {
	ID              string    `json:"id,omitempty"`
	EmployeeID      string    `json:"employee_id,omitempty"`
	EmployeeName    string    `json:"employee_name,omitempty"`
	Destination     string    `json:"destination,omitempty"`
	Purpose         string    `json:"purpose,omitempty"`
	DepartureDate   string    `json:"departure_date,omitempty"`
	ReturnDate      string    `json:"return_date,omitempty"`
	EstimatedCost   float64   `json:"estimated_cost,omitempty"`
	Status          string    `json:"status,omitempty"`
	ApprovedBy      string    `json:"approved_by,omitempty"`
	ApprovedAt      time.Time `json:"approved_at,omitzero"`
	RejectedBy      string    `json:"rejected_by,omitempty"`
	RejectedAt      time.Time `json:"rejected_at,omitzero"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// ChatChannel is a named conversation.
type ChatChannel struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// ChatMessage is one message posted to a channel.
type ChatMessage struct {
	ID          string    `json:"id,omitempty"`
	ChannelID   string    `json:"channel_id,omitempty"`
	SenderID    string    `json:"sender_id,omitempty"`
	SenderName  string    `json:"sender_name,omitempty"`
	Content     string    `json:"content,omitempty"`
	MessageType string    `json:"message_type,omitempty"`
	Status      string    `json:"status,omitempty"`
	EditedAt    time.Time `json:"edited_at,omitzero"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// Request is an employee request raised through the request panel.
type Request struct {
	ID              string    `json:"id,omitempty"`
	Title           string    `json:"title,omitempty"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category,omitempty"`
	RequesterID     string    `json:"requester_id,omitempty"`
	RequesterName   string    `json:"requester_name,omitempty"`
	Priority        string    `json:"priority,omitempty"`
	Status          string    `json:"status,omitempty"`
	AssignedTo      string    `json:"assigned_to,omitempty"`
	ApprovedBy      string    `json:"approved_by,omitempty"`
	ApprovedAt      time.Time `json:"approved_at,omitzero"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	Resolution      string    `json:"resolution,omitempty"`
	ResolvedAt      time.Time `json:"resolved_at,omitzero"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}
