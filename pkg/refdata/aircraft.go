package refdata

// aircraftTypes maps ICAO type designators to human-readable names.
var aircraftTypes = map[string]string{
	// Boeing
	"B38M": "Boeing 737 MAX 8",
	"B39M": "Boeing 737 MAX 9",
	"B3XM": "Boeing 737 MAX 10",
	"B737": "Boeing 737",
	"B738": "Boeing 737-800",
	"B739": "Boeing 737-900",
	"B744": "Boeing 747-400",
	"B748": "Boeing 747-8",
	"B763": "Boeing 767-300",
	"B764": "Boeing 767-400",
	"B772": "Boeing 777-200",
	"B773": "Boeing 777-300",
	"B77L": "Boeing 777-200LR",
	"B77W": "Boeing 777-300ER",
	"B788": "Boeing 787-8 Dreamliner",
	"B789": "Boeing 787-9 Dreamliner",
	"B78X": "Boeing 787-10 Dreamliner",

	// Airbus
	"A319": "Airbus A319",
	"A320": "Airbus A320",
	"A321": "Airbus A321",
	"A20N": "Airbus A320neo",
	"A21N": "Airbus A321neo",
	"A306": "Airbus A300-600",
	"A332": "Airbus A330-200",
	"A333": "Airbus A330-300",
	"A339": "Airbus A330-900neo",
	"A342": "Airbus A340-200",
	"A343": "Airbus A340-300",
	"A345": "Airbus A340-500",
	"A346": "Airbus A340-600",
	"A359": "Airbus A350-900",
	"A35K": "Airbus A350-1000",
	"A388": "Airbus A380-800",

	// Embraer
	"E170": "Embraer 170",
	"E175": "Embraer 175",
	"E190": "Embraer 190",
	"E195": "Embraer 195",
	"E290": "Embraer E-Jet E2",

	// Bombardier
	"CRJ2": "Bombardier CRJ-200",
	"CRJ7": "Bombardier CRJ-700",
	"CRJ9": "Bombardier CRJ-900",
	"CRJX": "Bombardier CRJ-1000",
	"DH8A": "Bombardier Dash 8-100",
	"DH8B": "Bombardier Dash 8-200",
	"DH8C": "Bombardier Dash 8-300",
	"DH8D": "Bombardier Dash 8 Q400",

	// Regional and others
	"AT72": "ATR 72",
	"AT76": "ATR 72-600",
	"SU95": "Sukhoi Superjet 100",
	"C919": "COMAC C919",
	"F100": "Fokker 100",
	"F70":  "Fokker 70",
	"BA46": "BAe 146",
	"RJ85": "Avro RJ85",
	"SF34": "Saab 340",
	"SF50": "Saab 2000",
	"MD11": "McDonnell Douglas MD-11",

	// Business jets
	"GLF5": "Gulfstream G550",
	"GLF6": "Gulfstream G650",
	"G280": "Gulfstream G280",
	"CL35": "Bombardier Challenger 350",
	"CL60": "Bombardier Challenger 600",
	"GLEX": "Bombardier Global Express",
	"C25A": "Cessna Citation CJ2",
	"C56X": "Cessna Citation Excel",
	"C680": "Cessna Citation Sovereign",
	"E55P": "Embraer Phenom 300",
	"F2TH": "Dassault Falcon 2000",
	"FA7X": "Dassault Falcon 7X",
	"PC24": "Pilatus PC-24",
}

// passengerCapacity holds typical single-class seat counts per type.
// Cargo variants share designators with passenger airframes; operator flags
// decide how an observation is treated, not the seat count.
var passengerCapacity = map[string]int{
	"B38M": 178, "B39M": 193, "B3XM": 204,
	"B737": 140, "B738": 175, "B739": 188,
	"B744": 416, "B748": 467,
	"B763": 261, "B764": 296,
	"B772": 305, "B773": 368, "B77L": 317, "B77W": 396,
	"B788": 242, "B789": 290, "B78X": 330,
	"A319": 140, "A320": 165, "A321": 200, "A20N": 165, "A21N": 206,
	"A332": 246, "A333": 290, "A339": 287,
	"A342": 261, "A343": 295, "A345": 270, "A346": 326,
	"A359": 325, "A35K": 369, "A388": 525,
	"E170": 72, "E175": 78, "E190": 100, "E195": 120, "E290": 106,
	"CRJ2": 50, "CRJ7": 70, "CRJ9": 90, "CRJX": 104,
	"DH8A": 37, "DH8B": 39, "DH8C": 50, "DH8D": 78,
	"AT72": 70, "AT76": 72,
	"SU95": 98, "C919": 164,
	"F100": 100, "F70": 80, "BA46": 85, "RJ85": 95,
	"SF34": 34, "SF50": 50,
}

// cruiseSpeedKt holds cruise speed estimates in knots, used for ETA
// calculation when providers report no arrival time.
var cruiseSpeedKt = map[string]float64{
	"B738": 453, "B739": 453, "B38M": 453, "B39M": 453, "B3XM": 453, "B737": 440,
	"B744": 493, "B748": 495,
	"B763": 470, "B764": 470,
	"B772": 482, "B773": 482, "B77L": 482, "B77W": 482,
	"B788": 488, "B789": 488, "B78X": 488,
	"A319": 447, "A320": 447, "A321": 447, "A20N": 450, "A21N": 450,
	"A332": 470, "A333": 470, "A339": 475,
	"A342": 475, "A343": 475, "A345": 480, "A346": 480,
	"A359": 488, "A35K": 488, "A388": 490,
	"E170": 430, "E175": 430, "E190": 447, "E195": 447, "E290": 447,
	"CRJ2": 424, "CRJ7": 447, "CRJ9": 447, "CRJX": 447,
	"DH8A": 237, "DH8B": 237, "DH8C": 280, "DH8D": 360,
	"AT72": 276, "AT76": 276,
	"MD11": 473,
	"GLF5": 459, "GLF6": 488, "GLEX": 470,
	"CL35": 448, "CL60": 442,
	"C25A": 413, "C56X": 430, "C680": 458,
	"E55P": 453, "F2TH": 450, "FA7X": 459, "PC24": 440,
}
